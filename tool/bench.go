// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/cborrepr"
	"github.com/cockroachdb/firetree/jsonrepr"
	"github.com/cockroachdb/firetree/snapfile"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

const (
	minLatency = 100 * time.Nanosecond
	maxLatency = 10 * time.Second
)

// benchOps are the operations timed by the bench command, in the order they
// are performed on every tree.
var benchOps = []string{"build", "freeze", "encode", "decode"}

// benchT implements the bench command.
type benchT struct {
	Root *cobra.Command

	t          *T
	nodes      int
	iterations int
	workers    int
	seed       uint64
	write      writeOptions
}

func newBench(t *T) *benchT {
	b := &benchT{t: t, write: writeOptions{format: formatSnap}}
	b.Root = &cobra.Command{
		Use:   "bench",
		Short: "benchmark building and encoding random trees",
		Long: `
Build random trees, freeze them, encode them and decode them again, timing each
step. Every worker owns its builder and decode storage, which is reused across
iterations.
`,
		Args: cobra.NoArgs,
		Run:  b.run,
	}
	b.Root.Flags().IntVarP(&b.nodes, "nodes", "n", 10000, "number of nodes per tree")
	b.Root.Flags().IntVar(&b.iterations, "iterations", 100, "number of trees per worker")
	b.Root.Flags().IntVarP(&b.workers, "workers", "w", 4, "number of concurrent workers")
	b.Root.Flags().Uint64Var(&b.seed, "seed", 0, "random seed (0 picks one from the clock)")
	b.Root.Flags().Var(&b.write.format, "format", "encoding format (json, cbor, snap)")
	b.Root.Flags().Var(&b.write.wire, "wire", "wire format of snap files (json, cbor)")
	b.Root.Flags().Var(&b.write.compression, "compression", "compression of snap files (none, snappy, minlz, zstd)")
	return b
}

// namedHistogram accumulates the latencies of one operation across workers.
type namedHistogram struct {
	name string
	mu   struct {
		sync.Mutex
		hist *hdrhistogram.Histogram
	}
	observer prometheus.Observer
}

func (h *namedHistogram) record(elapsed time.Duration) {
	h.observer.Observe(elapsed.Seconds())
	if elapsed < minLatency {
		elapsed = minLatency
	} else if elapsed > maxLatency {
		elapsed = maxLatency
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.mu.hist.RecordValue(elapsed.Nanoseconds())
}

// randomTree builds a tree of n nodes where every node is attached to the root
// or to a uniformly chosen earlier node.
func randomTree(rng *rand.Rand, b *firetree.Builder[string], n int) {
	b.Grow(n)
	for i := range n {
		parent := firetree.Root
		if k := rng.Intn(i + 1); k < i {
			parent = firetree.MakeBranchID(k)
		}
		b.Insert(parent, strconv.Itoa(i))
	}
}

func (b *benchT) run(cmd *cobra.Command, args []string) {
	if err := b.runBench(context.Background(), stdout); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
	}
}

func (b *benchT) runBench(ctx context.Context, w io.Writer) error {
	switch b.write.format {
	case formatJSON, formatCBOR, formatSnap:
	default:
		return errors.Errorf("bench: unsupported format %q", &b.write.format)
	}
	if b.nodes < 0 || b.iterations <= 0 || b.workers <= 0 {
		return errors.Errorf("bench: --nodes, --iterations and --workers must be positive")
	}
	seed := b.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	b.t.logger().Infof("bench: seed %d", seed)

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "firetree",
		Subsystem: "bench",
		Name:      "op_duration_seconds",
		Help:      "Duration of tree operations.",
		Buckets:   prometheus.ExponentialBuckets(minLatency.Seconds(), 2, 28),
	}, []string{"op"})
	hists := make(map[string]*namedHistogram, len(benchOps))
	for _, op := range benchOps {
		h := &namedHistogram{name: op, observer: latency.WithLabelValues(op)}
		h.mu.hist = hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), 1)
		hists[op] = h
	}

	var encodedBytes struct {
		sync.Mutex
		total int64
	}
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for worker := range b.workers {
		rng := rand.New(rand.NewSource(seed + uint64(worker)))
		g.Go(func() error {
			d := b.t.newDecodeStorage()
			var buf bytes.Buffer
			var total int64
			for range b.iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				t0 := time.Now()
				builder := firetree.NewBuilder[string]()
				randomTree(rng, builder, b.nodes)
				t1 := time.Now()
				s := builder.Freeze()
				t2 := time.Now()
				hists["build"].record(t1.Sub(t0))
				hists["freeze"].record(t2.Sub(t1))

				buf.Reset()
				if err := b.encode(&buf, s, hists["encode"]); err != nil {
					return err
				}
				total += int64(buf.Len())
				if err := b.decode(&buf, d, hists["decode"]); err != nil {
					return err
				}
				if d.Snapshot.NodeCount() != s.NodeCount() {
					return errors.AssertionFailedf("bench: decoded %d nodes, encoded %d",
						d.Snapshot.NodeCount(), s.NodeCount())
				}
			}
			encodedBytes.Lock()
			encodedBytes.total += total
			encodedBytes.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	trees := int64(b.workers * b.iterations)
	fmt.Fprintf(w, "%s trees of %s nodes in %s (%s encoded, %s per tree)\n",
		crhumanize.Count(trees, crhumanize.Compact),
		crhumanize.Count(int64(b.nodes), crhumanize.Compact),
		elapsed.Round(time.Millisecond),
		crhumanize.Bytes(encodedBytes.total, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Bytes(encodedBytes.total/trees, crhumanize.Compact, crhumanize.OmitI))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"op", "count", "mean", "p50", "p95", "p99", "max"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, op := range benchOps {
		h := hists[op].mu.hist
		table.Append([]string{
			op,
			strconv.FormatInt(h.TotalCount(), 10),
			time.Duration(h.Mean()).String(),
			time.Duration(h.ValueAtQuantile(50)).String(),
			time.Duration(h.ValueAtQuantile(95)).String(),
			time.Duration(h.ValueAtQuantile(99)).String(),
			time.Duration(h.Max()).String(),
		})
	}
	table.Render()
	return b.checkObserved(latency, trees)
}

// checkObserved verifies that the prometheus histograms saw every operation.
func (b *benchT) checkObserved(latency *prometheus.HistogramVec, trees int64) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(latency); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			op := "unknown"
			for _, l := range m.GetLabel() {
				if l.GetName() == "op" {
					op = l.GetValue()
				}
			}
			if n := m.GetHistogram().GetSampleCount(); int64(n) != trees {
				return errors.AssertionFailedf("bench: %s observed %d times, expected %d", op, n, trees)
			}
			b.t.logger().Infof("bench: %s: %.6fs total", op, m.GetHistogram().GetSampleSum())
		}
	}
	return nil
}

func (b *benchT) encode(w *bytes.Buffer, s *firetree.Snapshot[string], h *namedHistogram) error {
	start := time.Now()
	var err error
	switch b.write.format {
	case formatJSON:
		err = firetree.Encode(jsonrepr.NewWriter(w), s)
	case formatCBOR:
		err = firetree.Encode(cborrepr.NewWriter(w), s)
	case formatSnap:
		err = snapfile.Write(w, s, snapfile.WriterOptions{
			Format:      b.write.wire.f,
			Compression: b.write.compression.c,
		})
	}
	if err != nil {
		return err
	}
	h.record(time.Since(start))
	return nil
}

func (b *benchT) decode(r *bytes.Buffer, d *firetree.DecodeStorage[string], h *namedHistogram) error {
	start := time.Now()
	var err error
	switch b.write.format {
	case formatJSON:
		err = d.Decode(jsonrepr.NewReader(r))
	case formatCBOR:
		err = d.Decode(cborrepr.NewReader(r))
	case formatSnap:
		_, err = snapfile.Read(r, d, snapfile.ReaderOptions{MaxDecodedSize: b.t.opts.MaxDecodedSize})
	}
	if err != nil {
		return err
	}
	h.record(time.Since(start))
	return nil
}
