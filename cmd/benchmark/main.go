package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/streamparty/stream"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

var (
	depths = []int{1, 10, 100}
	widths = []int{100, 1_000, 10_000}
	iters  = 100
)

func main() {
	flag.Parse()

	f, err := os.Create("default.pgo")
	if err != nil {
		log.Fatal(err)
	}
	pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	cfg := stream.DefaultConfig()
	cfg.ValidateSubscriptions = false
	cfg.NamesEnabled = false
	cfg.Logger = zap.NewNop()
	stream.Configure(cfg)

	log.Printf("warming up")
	totalItems := benchmarkChains(true)
	totalFanout := benchmarkHubFanout(true)

	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"benchmark", "items delivered"})
	summary.Append([]string{"operator chains", humanize.Comma(totalItems)})
	summary.Append([]string{"hub fanout", humanize.Comma(totalFanout)})
	summary.Render()
}

func benchmarkChains(shouldRender bool) int64 {
	tbl := table.NewWriter()
	tbl.SetTitle("Operator Chains")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	var total int64
	for _, w := range widths {
		for _, d := range depths {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			s := stream.Range(0, w)
			for i := 0; i < d; i++ {
				s = stream.Map(s, func(v int) int { return v + 1 })
			}
			s = s.Filter(func(v int) bool { return v%2 == 0 })

			var expected uint64
			for i := 0; i < iters; i++ {
				digest := xxhash.New()
				var buf [8]byte
				count := 0

				start := time.Now()
				s.Subscribe(func(v int) {
					binary.LittleEndian.PutUint64(buf[:], uint64(v))
					digest.Write(buf[:])
					count++
				}, nil, nil)
				tach.AddTime(time.Since(start))

				total += int64(count)
				// the digest keeps delivery from being optimized away and
				// catches run-to-run divergence
				sum := digest.Sum64()
				if expected == 0 {
					expected = sum
				} else if sum != expected {
					log.Fatalf("digest mismatch for %dx%d: %x != %x", w, d, sum, expected)
				}
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("chain: %d items * %d stages", w, d),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
	return total
}

func benchmarkHubFanout(shouldRender bool) int64 {
	tbl := table.NewWriter()
	tbl.SetTitle("Hub Fanout")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	var total int64
	for _, subscribers := range []int{1, 10, 100} {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		hub := stream.NewSubject[int]()
		count := 0
		for i := 0; i < subscribers; i++ {
			hub.AsStream().Subscribe(func(int) { count++ }, nil, nil)
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			for v := 0; v < 1_000; v++ {
				hub.Next(v)
			}
			tach.AddTime(time.Since(start))
		}
		total += int64(count)

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				fmt.Sprintf("fanout: %d subscribers", subscribers),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	if shouldRender {
		tbl.Render()
	}
	return total
}
