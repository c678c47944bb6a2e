package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hassan/toyc/internal/ast"
	"github.com/hassan/toyc/internal/astgen"
	"github.com/hassan/toyc/internal/boxer"
	"github.com/hassan/toyc/internal/config"
	"github.com/hassan/toyc/internal/lexer"
	"github.com/hassan/toyc/internal/lower"
	"github.com/hassan/toyc/internal/session"
	"github.com/hassan/toyc/internal/tir"
	"github.com/hassan/toyc/internal/viewer"
)

// buildResult is everything a subcommand needs after a successful
// pipeline run: the lowered program plus the ast it was lowered from, kept
// around in case a future subcommand wants to report on it.
type buildResult struct {
	Stmts   []ast.Stmt
	Builder *tir.Builder
}

// runPipeline drives lex -> box -> astgen -> lower over cfg.EntryFile,
// printing a progress line per stage in the same sequential,
// fail-fast-with-a-checkmark style the rest of this toolchain's stages
// report in.
func runPipeline(cfg config.Config, sess *session.Session) (*buildResult, error) {
	source, err := os.ReadFile(cfg.EntryFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.EntryFile, err)
	}

	toks, err := tokenize(string(source), cfg.EntryFile)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(os.Stderr, "✓ lexing")

	boxes, err := boxer.New(toks).BoxAll()
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(os.Stderr, "✓ boxing")

	loader := newFSLoader(cfg.ImportRoots)
	gen := astgen.New(sess, loader)
	stmts, err := gen.Generate(boxes)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(os.Stderr, "✓ ast generation")

	b, err := lower.Lower(stmts, true)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(os.Stderr, "✓ lowering to tir")

	return &buildResult{Stmts: stmts, Builder: b}, nil
}

func tokenize(source, filename string) ([]lexer.Token, error) {
	l := lexer.New(source, filename)
	var toks []lexer.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == lexer.KindEOF {
			return toks, nil
		}
	}
}

// dumpTIR renders every function's blocks and instructions, followed by
// the heap allocations the viewer package reports for it, so a --save-ir
// run exercises the same read-only query surface a downstream
// lifetime-analysis pass would.
func dumpTIR(b *tir.Builder) string {
	var out strings.Builder
	v := viewer.New(b)
	for i, fn := range b.Functions {
		fmt.Fprintf(&out, "func %s -> %s\n", fn.Name, fn.RetType)
		for _, blk := range fn.Blocks {
			fmt.Fprintf(&out, "  block%d:\n", blk.ID)
			for _, ins := range blk.Instructions {
				fmt.Fprintf(&out, "    %s\n", ins.String())
			}
		}
		locs, err := v.FindHeapAllocations(i)
		if err != nil || len(locs) == 0 {
			continue
		}
		fmt.Fprintf(&out, "  heap allocations:\n")
		for _, loc := range locs {
			fmt.Fprintf(&out, "    block%d[%d]: %s\n", loc.BlockID, loc.Index, loc.Instruction.String())
		}
	}
	return out.String()
}
