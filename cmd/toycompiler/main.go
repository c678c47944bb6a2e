// Command toycompiler drives the lex -> box -> astgen -> lower pipeline
// over a .toy source file and reports its lowered TIR.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
