package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "plan":
			plan(os.Args[2:])
			return
		case "export":
			export(os.Args[2:])
			return
		}
	}
	log.Println("Usage:")
	log.Println("  rangescan plan -min N -max M (-batch-size S | -batch-count C) [-format text|yaml]")
	log.Println("  rangescan export -dsn ... -table ... -pk ... -out ./export [-batch-size S | -batch-count C] [flags]")
	os.Exit(2)
}
