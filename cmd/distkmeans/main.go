// Command distkmeans drives distributed k-means runs.
//
//	distkmeans local  --workers 4 --n-total 4000000 --d 20 --k 3
//	distkmeans gen    --dir ./data --size 4 --n-total 4000000 --d 20 --k 3
//	distkmeans worker --rank 0 --size 4 --listen :7400 --dir ./data
//	distkmeans worker --rank 1 --size 4 --coordinator host0:7400 --dir ./data
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
