package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ucpu/qasmint/config"
	"github.com/ucpu/qasmint/cpu"
)

func main() {
	var program string
	var limitsPath string
	var input string
	var output string
	var verbose bool

	flag.StringVar(&program, "p", "", "assembly program to load")
	flag.StringVar(&limitsPath, "l", "", "INI limits file (defaults used if omitted)")
	flag.StringVar(&input, "i", "-", "line-oriented input source")
	flag.StringVar(&output, "o", "-", "line-oriented output sink")
	flag.BoolVar(&verbose, "v", false, "verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: unknown arguments: %v", os.Args[0], flag.Args())
	}
	if program == "" {
		log.Fatalf("%v: -p program is required", os.Args[0])
	}

	pf, err := os.Open(program)
	if err != nil {
		log.Fatalf("%v: %v", program, err)
	}
	defer pf.Close()

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(pf)
	if err != nil {
		log.Fatalf("%v: %v", program, err)
	}

	limits := cpu.DefaultLimits()
	if limitsPath != "" {
		lf, err := os.Open(limitsPath)
		if err != nil {
			log.Fatalf("%v: %v", limitsPath, err)
		}
		limits, err = config.Load(lf)
		lf.Close()
		if err != nil {
			log.Fatalf("%v: %v", limitsPath, err)
		}
	}

	var inf *os.File
	if input == "-" {
		inf = os.Stdin
	} else {
		inf, err = os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
	}

	var ouf *os.File
	if output == "-" {
		ouf = os.Stdout
	} else {
		ouf, err = os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
	}

	reader := bufio.NewScanner(inf)
	writer := bufio.NewWriter(ouf)
	defer writer.Flush()

	limits.Input = func() (string, bool) {
		if !reader.Scan() {
			return "", false
		}
		return reader.Text(), true
	}
	limits.Output = func(line string) bool {
		_, err := fmt.Fprintln(writer, line)
		return err == nil
	}

	c, err := cpu.New(limits)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
	c.Verbose = verbose

	if err := c.LoadProgram(prog); err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	if err := c.Run(); err != nil {
		var fault *cpu.ErrFault
		if errors.As(err, &fault) {
			fmt.Fprintf(os.Stderr, "%v: fault in %v at line %v (step %v): %v\n",
				os.Args[0], fault.Function, fault.LineNo, fault.Step, fault.Err)
		} else {
			fmt.Fprintf(os.Stderr, "%v: %v\n", os.Args[0], err)
		}
		writer.Flush()
		os.Exit(1)
	}

	writer.Flush()
	if c.State() != cpu.StateFinished {
		os.Exit(1)
	}
}
