package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/adapters/driving/mcp"
	"github.com/custodia-labs/galassia/internal/bootstrap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the workflow to MCP clients",
	Long: `Serve galassia to an assistant over the Model Context Protocol.

Tools:
  ask        answer a question about the menus
  dish_ids   map dish names to dataset ids

The prompt templates are listed as galassia://prompts resources.

Without --port the server speaks JSON-RPC on stdio, which is what desktop
assistants launch. With --port it serves streamable HTTP on /mcp and a
liveness probe on /healthz.

  galassia mcp serve
  galassia mcp serve --port 8080 --host 0.0.0.0

Desktop assistant entry:
  {"mcpServers": {"galassia": {"command": "galassia", "args": ["mcp", "serve"]}}}`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().String("host", "127.0.0.1", "interface to bind with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// listenAddr is empty when the server should use stdio.
func listenAddr(host string, port int) string {
	if port <= 0 {
		return ""
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	svc, err := openServices(cmd.Context(), bootstrap.Options{RequireLLM: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	ports := &mcp.Ports{Workflow: svc.Workflow, Formatter: svc.Formatter}
	if svc.Prompts != nil {
		ports.Prompts = svc.Prompts
	}
	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}
	watchPrompts(cmd.Context(), svc)

	addr := listenAddr(host, port)
	if addr == "" {
		return server.Run(cmd.Context())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "MCP endpoint http://%s%s\n", addr, mcp.EndpointPath)
	return server.RunHTTP(cmd.Context(), addr)
}
