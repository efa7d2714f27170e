// Command stubserver runs the in-memory membership service, mainly for
// local harness runs and demos.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"membench/stubserver"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	skew := flag.Float64("adjustment-skew", 0, "amount added to every pro-rated adjustment (forces findings)")
	flatten := flag.Bool("flatten-pricing", false, "break the tier pricing hierarchy on purpose")
	flag.Parse()

	srv := stubserver.New(stubserver.Options{
		AdjustmentSkew: *skew,
		FlattenPricing: *flatten,
	})

	fmt.Printf("membership stub listening on %s\n", *addr)
	server := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
