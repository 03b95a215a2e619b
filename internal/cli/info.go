package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/porticus-lab/htmlbook/internal/pdf"
)

// pdfInfo is the JSON form of the info command's output.
type pdfInfo struct {
	File     string            `json:"file"`
	Version  string            `json:"version"`
	Pages    []pdf.PageInfo    `json:"pages"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func newInfoCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <file.pdf>",
		Short: "Display PDF metadata and page dimensions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := readInfo(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			printInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func readInfo(path string) (*pdfInfo, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	pages, err := doc.Pages()
	if err != nil {
		return nil, fmt.Errorf("reading pages: %w", err)
	}

	info := &pdfInfo{
		File:     path,
		Version:  doc.Version(),
		Pages:    make([]pdf.PageInfo, len(pages)),
		Metadata: doc.Info(),
	}
	for i, page := range pages {
		info.Pages[i] = doc.PageInfo(page)
	}
	return info, nil
}

func printInfo(w io.Writer, info *pdfInfo) {
	fmt.Fprintf(w, "File:    %s\n", info.File)
	fmt.Fprintf(w, "Version: PDF-%s\n", info.Version)
	fmt.Fprintf(w, "Pages:   %d\n", len(info.Pages))

	if len(info.Metadata) > 0 {
		keys := make([]string, 0, len(info.Metadata))
		for k := range info.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Metadata:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, info.Metadata[k])
		}
	}

	if len(info.Pages) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Page dimensions:")
		for i, p := range info.Pages {
			fmt.Fprintf(w, "  Page %d: %.0f x %.0f pt", i+1, p.Width, p.Height)
			if p.Rotation != 0 {
				fmt.Fprintf(w, " (rotated %d°)", p.Rotation)
			}
			fmt.Fprintln(w)
		}
	}
}
