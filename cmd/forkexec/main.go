package main

import (
	"github.com/Paintersrp/forkexec/internal/cli"
	"github.com/Paintersrp/forkexec/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
