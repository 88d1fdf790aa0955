package main

import (
	"fmt"
	"os"

	"minijava/pkg/compiler"
)

const testSource = `class Demo {
	public int add(int x, int y) {
		int z;
		z = x + y;
		return z;
	}
}
final class Main {
	public static void main(String[] args) {
		write("sum: ");
		writeln();
	}
}
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens := compiler.Lex(src)
	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Translate and generate
	res, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}

	fmt.Println("Three-Address Code")
	fmt.Print(res.TAC)

	fmt.Println("Generated Assembly")
	fmt.Print(res.Asm)
	fmt.Println()
	fmt.Print(res.Symbols)
}
