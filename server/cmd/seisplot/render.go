package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/seisplot/seisplot/server/internal/config"
	"github.com/seisplot/seisplot/server/internal/query"
	"github.com/seisplot/seisplot/server/internal/render"
)

// render: run one selection through the validator and renderer and write
// the image to a file.
func renderCmd(configPath *string) *cobra.Command {
	var out string
	fields := make(map[string]*string, len(query.Fields))

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one plot to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			v := url.Values{}
			for name, val := range fields {
				v.Set(name, *val)
			}
			q, err := query.Parse(v)
			if err != nil {
				return err
			}

			r, err := render.NewHTTP(cfg.Renderer)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Renderer.Timeout)
			defer cancel()

			img, err := r.Render(ctx, q)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, img, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(img))
			return nil
		},
	}

	for _, name := range query.Fields {
		fields[name] = cmd.Flags().String(name, "", name+" of the selection")
	}
	cmd.Flags().StringVarP(&out, "out", "o", "plot.png", "output file")
	return cmd
}
