package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hyperifyio/websearch/internal/engine"
	"github.com/hyperifyio/websearch/internal/search"
)

type queryOptions struct {
	ids        []string
	only       []string
	region     string
	language   string
	safe       string
	page       int
	format     string
	includeRaw bool
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	o := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query [terms...]",
		Short: "Run one search and print the merged results",
		Example: `  websearch query golang generics
  websearch query --id 1706.03762 --provider arxiv
  websearch query --format json "rust async" | jq '.[].url'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" && len(o.ids) == 0 {
				return engine.ErrQueryRequired
			}
			ps, err := loadProviders(&root.cfg)
			if err != nil {
				return err
			}
			if len(o.only) > 0 {
				if ps, err = filterProviders(ps, o.only); err != nil {
					return err
				}
			}
			q := root.cfg.Query(search.Query{
				Text:       text,
				IDList:     o.ids,
				Page:       o.page,
				Region:     o.region,
				Language:   o.language,
				SafeSearch: search.ParseSafeSearch(o.safe),
			})
			req := engine.Request{Providers: ps, Query: q}
			outcomes, err := engine.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, oc := range outcomes {
				if oc.Err != nil {
					log.Warn().Str("provider", oc.Provider).Dur("elapsed", oc.Elapsed).Msg(oc.Err.Error())
					continue
				}
				log.Debug().Str("provider", oc.Provider).Int("results", len(oc.Results)).Dur("elapsed", oc.Elapsed).Msg("provider ok")
			}
			results, err := engine.Merge(outcomes)
			if err != nil {
				return err
			}
			if !o.includeRaw {
				for i := range results {
					results[i].Raw = nil
				}
			}
			return writeResults(cmd.OutOrStdout(), o.format, queryTitle(text, o.ids), results)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&o.ids, "id", nil, "arXiv identifiers to fetch (repeatable)")
	f.StringSliceVarP(&o.only, "provider", "p", nil, "only use these configured providers")
	f.StringVar(&o.region, "region", "", "region hint, e.g. US")
	f.StringVar(&o.language, "lang", "", "language hint, e.g. en or de-AT")
	f.StringVar(&o.safe, "safe", "", "safe search level: off, moderate or strict")
	f.IntVar(&o.page, "page", 0, "1-based result page")
	f.StringVar(&o.format, "format", "auto", "output format: auto, json or markdown")
	f.BoolVar(&o.includeRaw, "raw", false, "include each provider's untransformed record in JSON output")
	return cmd
}

func filterProviders(ps []search.Provider, names []string) ([]search.Provider, error) {
	out := make([]search.Provider, 0, len(names))
	for _, n := range names {
		found := false
		for _, p := range ps {
			if strings.EqualFold(p.Name(), strings.TrimSpace(n)) {
				out = append(out, p)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("provider %q is not configured", n)
		}
	}
	return out, nil
}

func queryTitle(text string, ids []string) string {
	if text != "" {
		return text
	}
	return "ID list " + strings.Join(ids, ", ")
}

// writeResults prints JSON, or markdown rendered for the terminal when
// format is auto and stdout is a TTY.
func writeResults(w io.Writer, format, title string, results []search.Result) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, results)
	case "markdown", "md":
		_, err := io.WriteString(w, resultsMarkdown(title, results))
		return err
	case "auto", "":
		f, ok := w.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return writeJSON(w, results)
		}
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 80
		}
		out, err := renderMarkdown(resultsMarkdown(title, results), width)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	return fmt.Errorf("unknown format %q (want auto, json or markdown)", format)
}

func writeJSON(w io.Writer, results []search.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}
