package cmd

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/clsprobe/internal/score"
	"github.com/agentic-research/clsprobe/internal/service"
)

// Version is reported by the MCP server.
var Version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose scoring as an MCP tool over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout. The reference is
decrypted once at startup; every "score" tool call scores one candidate file
against it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := referenceScorer()
		if err != nil {
			return err
		}
		logger.Info("serving on stdio", zap.Int("reference_fields", scorer.Reference().Len()))
		return server.ServeStdio(newMCPServer(scorer))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func referenceScorer() (*service.Scorer, error) {
	fs := hostFS()
	loader := newLoader(fs)
	c, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	ref, err := absPath(cfg.Reference)
	if err != nil {
		return nil, err
	}
	reference, err := service.LoadReference(fs, c, loader, ref)
	if err != nil {
		return nil, err
	}
	return service.NewScorer(reference, cfg.Matcher, loader,
		service.WithWorkers(cfg.Workers), service.WithLogger(logger))
}

func newMCPServer(scorer *service.Scorer) *server.MCPServer {
	s := server.NewMCPServer("clsprobe", Version, server.WithToolCapabilities(false))
	tool := mcp.NewTool("score",
		mcp.WithDescription("Score a data classification result file against the reference classification"),
		mcp.WithString("candidate",
			mcp.Required(),
			mcp.Description("Path to the candidate result (xlsx, csv or SQLite)"),
		),
		mcp.WithBoolean("json",
			mcp.Description("Return the JSON report instead of the text summary"),
		),
		mcp.WithBoolean("units",
			mcp.Description("Include every diff unit in the JSON report"),
		),
	)
	s.AddTool(tool, scoreHandler(scorer))
	return s
}

func scoreHandler(scorer *service.Scorer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		candidate, err := req.RequireString("candidate")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, err := absPath(candidate)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rep, err := scorer.Score(ctx, path)
		if err != nil {
			logger.Warn("score tool failed", zap.String("candidate", candidate), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}

		var b strings.Builder
		if req.GetBool("json", false) || req.GetBool("units", false) {
			doc := rep.API(candidate, scorer.Matcher(), req.GetBool("units", false)).Generic()
			if err := score.WriteJSON(&b, doc, 2); err != nil {
				return nil, err
			}
		} else if err := rep.WriteText(&b); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
