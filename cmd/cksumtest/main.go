// Package main computes and verifies the additive modulo-32768 checksum used
// by the fuel cell datalogger. Handy when eyeballing a suspect log line.
//
// Usage:
//
//	cksumtest '4112,33557475,...,2097216'        compute the checksum
//	cksumtest '4112,33557475,...,2097216:8002'   verify a payload:checksum pair
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"fuelcell_parser/internal/checksum"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: cksumtest <payload>[:<checksum>]")
		os.Exit(2)
	}

	for _, arg := range os.Args[1:] {
		payload := arg
		transmitted := -1

		if idx := strings.LastIndex(arg, ":"); idx >= 0 {
			if n, err := strconv.Atoi(arg[idx+1:]); err == nil {
				payload = arg[:idx]
				transmitted = n
			}
		}

		sum := checksum.SumString(payload)
		fmt.Printf("payload bytes: %d\n", len(payload))
		fmt.Printf("checksum: %d (0x%04X)\n", sum, sum)

		if transmitted >= 0 {
			if checksum.Verify(payload, transmitted) {
				fmt.Printf("transmitted %d: OK\n", transmitted)
			} else {
				fmt.Printf("transmitted %d: MISMATCH\n", transmitted)
			}
		}
	}
}
