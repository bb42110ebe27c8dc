// Command zparse is a thin CLI wrapper around package parser and package
// trie: it lexes and parses source files, printing diagnostics, and builds
// or dumps Mach-O export-trie blobs.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"j5.nz/zparse/ast"
	"j5.nz/zparse/bytestream"
	"j5.nz/zparse/parser"
	"j5.nz/zparse/token"
	"j5.nz/zparse/trie"
)

func trieBuffer() *bytestream.Buffer             { return bytestream.NewBuffer(nil) }
func trieBufferFrom(b []byte) *bytestream.Buffer { return bytestream.NewBuffer(b) }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zparse",
		Short:         "Parse a systems-language source file and inspect Mach-O export tries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newParseCmd(), newTrieCmd())
	return root
}

func newParseCmd() *cobra.Command {
	var zon bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Lex and parse a file, printing one line per diagnostic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			tokens := token.NewLexer(src).Tokenize()

			var tree *ast.Tree
			if zon {
				tree = parser.ParseZon(src, tokens)
			} else {
				tree = parser.Parse(src, tokens)
			}

			var fatal int
			for _, e := range tree.Errors {
				tree.RenderTo(cmd.OutOrStdout(), e)
				if !e.IsNote {
					fatal++
				}
			}
			if fatal > 0 {
				return fmt.Errorf("found %d error(s)", fatal)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&zon, "zon", false, "parse a single object-notation (ZON) expression instead of a full file")
	return cmd
}

func newTrieCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trie",
		Short: "Build or inspect a Mach-O export trie blob",
	}
	cmd.AddCommand(newTrieBuildCmd(), newTrieDumpCmd())
	return cmd
}

func newTrieBuildCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "build <name=offset[:flags],...>",
		Short: "Build a trie from a comma-separated symbol list and write the serialized blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, err := parseSymbolList(args[0])
			if err != nil {
				return err
			}
			tr := trie.New()
			for _, s := range symbols {
				tr.Insert(s)
			}
			tr.Finalize()

			buf := trieBuffer()
			if err := tr.Write(buf); err != nil {
				return fmt.Errorf("writing trie: %w", err)
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return os.WriteFile(output, buf.Bytes(), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newTrieDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Read a trie blob back and print every resolved symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			tr, err := trie.Read(trieBufferFrom(data))
			if err != nil {
				return fmt.Errorf("parsing trie: %w", err)
			}
			for _, sym := range walkSymbols(tr) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = 0x%x\n", sym.Name, sym.VMAddrOffset)
			}
			return nil
		},
	}
	return cmd
}

// parseSymbolList parses "name=offset[:flags],..." into a Symbol slice, the
// compact textual form the "trie build" subcommand accepts on the command
// line in place of a real Mach-O symbol table.
func parseSymbolList(spec string) ([]trie.Symbol, error) {
	var out []trie.Symbol
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("symbol %q: expected name=offset[:flags]", entry)
		}
		offsetStr, flagsStr, hasFlags := strings.Cut(rest, ":")
		offset, err := strconv.ParseUint(strings.TrimPrefix(offsetStr, "0x"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("symbol %q: invalid offset: %w", entry, err)
		}
		var flags uint64
		if hasFlags {
			flags, err = strconv.ParseUint(flagsStr, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("symbol %q: invalid flags: %w", entry, err)
			}
		}
		out = append(out, trie.Symbol{Name: name, VMAddrOffset: offset, ExportFlags: flags})
	}
	return out, nil
}

// walkSymbols recovers every terminal's full symbol name by DFS over the
// trie's edges, reversing trie.Insert's label-splitting.
func walkSymbols(tr *trie.Trie) []trie.Symbol {
	var out []trie.Symbol
	if tr.Root == nil {
		return out
	}
	var walk func(n *trie.Node, prefix string)
	walk = func(n *trie.Node, prefix string) {
		if n.HasTerminal {
			out = append(out, trie.Symbol{Name: prefix, VMAddrOffset: n.VMAddrOffset, ExportFlags: n.ExportFlags})
		}
		for _, e := range n.Edges {
			walk(e.To, prefix+string(e.Label))
		}
	}
	walk(tr.Root, "")
	return out
}
