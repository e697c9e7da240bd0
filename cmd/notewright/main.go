/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notewright/internal/config"
	"notewright/internal/crash"
	"notewright/internal/domain"
	"notewright/internal/export"
	applog "notewright/internal/log"
	"notewright/internal/storage"
	"notewright/internal/telemetry"
	"notewright/internal/version"
)

var ph *storage.ProjectHandle

func main() {
	applog.Init(applog.FromEnv())
	defer func() { crash.Recover(ph) }()

	root := &cobra.Command{
		Use:           "notewright",
		Short:         "Letter notation editor and export engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), initCmd(), openCmd(), indexCmd(), searchCmd(), convertCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <dir> <name>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, _ := filepath.Abs(args[0])
			l := applog.WithComponent("cli")
			l.Info("init project", slog.String("root", abs), slog.String("name", args[1]))
			h, err := storage.InitProject(abs, domain.Project{Name: args[1]})
			if err != nil {
				return err
			}
			ph = h
			fmt.Println("Created project at", abs)
			return nil
		},
	}
}

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <dir>",
		Short: "Open a project and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, _ := filepath.Abs(args[0])
			h, err := storage.Open(abs)
			if err != nil {
				return err
			}
			ph = h
			fmt.Printf("Opened project: %s\n", h.Project.Name)
			fmt.Printf("Scores: %d\n", len(h.Project.Scores))
			fmt.Println("Root:", h.Root)
			return nil
		},
	}
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <dir>",
		Short: "Rebuild the project search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, _ := filepath.Abs(args[0])
			h, err := storage.Open(abs)
			if err != nil {
				return err
			}
			ph = h
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := storage.RebuildIndex(ctx, h.Root, h.Project); err != nil {
				return err
			}
			fmt.Println("Index rebuilt.")
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var scoreID string
	var types []string
	cmd := &cobra.Command{
		Use:   "search <dir> <query>",
		Short: "Full-text search over titles, notation lines and lyrics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, _ := filepath.Abs(args[0])
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			res, err := storage.Search(ctx, abs, storage.SearchQuery{
				Text:    args[1],
				ScoreID: scoreID,
				Types:   types,
			})
			if err != nil {
				return err
			}
			for _, r := range res {
				if r.LineNo >= 0 {
					fmt.Printf("%s\t%s\tline %d\t%s\n", r.ScoreID, r.Type, r.LineNo, r.Snippet)
				} else {
					fmt.Printf("%s\t%s\t\t%s\n", r.ScoreID, r.Type, r.Snippet)
				}
			}
			if len(res) == 0 {
				fmt.Println("No matches.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scoreID, "score", "", "restrict to one score ID")
	cmd.Flags().StringSliceVar(&types, "type", nil, "restrict to row types (title, line, lyrics, label)")
	return cmd
}

func convertCmd() *cobra.Command {
	var format string
	var out string
	cmd := &cobra.Command{
		Use:   "convert <score.nw>",
		Short: "Export a score to musicxml, lilypond, midi or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load()
			if err != nil {
				cfg = config.Defaults()
			}
			doc, err := storage.LoadDocument(args[0])
			if err != nil {
				return err
			}
			telemetry.Event("export", map[string]any{"format": format})
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + extFor(format)
			}
			switch format {
			case "musicxml":
				s, err := export.MusicXML(doc, export.MusicXMLOptions{Software: "notewright " + version.String()})
				if err != nil {
					return err
				}
				return os.WriteFile(out, []byte(s), 0o644)
			case "lilypond":
				s, err := export.MusicXML(doc, export.MusicXMLOptions{Software: "notewright " + version.String()})
				if err != nil {
					return err
				}
				settings := export.DefaultLilySettings()
				if cfg.Export.LilyPondVersion != "" {
					settings.TargetVersion = cfg.Export.LilyPondVersion
				}
				if cfg.Export.Language != "" {
					settings.Language = cfg.Export.Language
				}
				ly, err := export.ConvertMusicXMLToLilyPond(s, settings)
				if err != nil {
					return err
				}
				return os.WriteFile(out, []byte(ly), 0o644)
			case "midi":
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				opt := export.MIDIOptions{}
				if cfg.Export.TicksPerQuarter > 0 {
					opt.TicksPerQuarter = cfg.Export.TicksPerQuarter
				}
				return export.WriteMIDI(f, doc, opt)
			case "pdf":
				return export.SheetPDF(out, doc, export.PDFOptions{DrawBeatArcs: true})
			default:
				return fmt.Errorf("unknown format %q (want musicxml, lilypond, midi or pdf)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "musicxml", "output format: musicxml, lilypond, midi, pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults next to the input)")
	return cmd
}

func extFor(format string) string {
	switch format {
	case "lilypond":
		return ".ly"
	case "midi":
		return ".mid"
	case "pdf":
		return ".pdf"
	default:
		return ".musicxml"
	}
}
