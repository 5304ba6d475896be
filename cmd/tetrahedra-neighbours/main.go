/*
Command tetrahedra-neighbours extracts the triangulated boundary
surface of a volume tetrahedral mesh, in parallel, via the neighbours
package's two-phase face-adjacency algorithm running on a
scheduler.Scheduler.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/exascience/lplib/meshio"
	"github.com/exascience/lplib/neighbours"
	"github.com/exascience/lplib/schedconfig"
	"github.com/exascience/lplib/scheduler"
	"github.com/exascience/lplib/xtime"
)

const usageBanner = `
tetrahedra_neighbours v1.03   parallel neighbours example
 Usage      : tetrahedra-neighbours -in volume_mesh -out surface_mesh
 -in name     : name of the input tetrahedral-only mesh
 -out name    : name of the output surface mesh
 -nproc n     : n is the number of threads to be launched (default = all available threads)
 -config path : optional YAML file with num_workers/coloring_constant_k/log_level
`

func withMeshSuffix(name string) string {
	if name == "" || strings.Contains(name, ".mesh") {
		return name
	}
	return name + ".meshb"
}

func clampNproc(n int) int {
	switch {
	case n < 1:
		return 1
	case n > 128:
		return 128
	default:
		return n
	}
}

func run(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stdout, usageBanner)
		return 0
	}

	fs := flag.NewFlagSet("tetrahedra-neighbours", flag.ContinueOnError)
	fs.SetOutput(stdout)
	inName := fs.String("in", "", "name of the input tetrahedral-only mesh")
	outName := fs.String("out", "", "name of the output surface mesh")
	configPath := fs.String("config", "", "optional YAML file with num_workers/coloring_constant_k/log_level")
	nproc := fs.Int("nproc", -1, "number of threads to be launched (default = all available threads)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	in := withMeshSuffix(*inName)
	out := withMeshSuffix(*outName)

	if in == "" {
		fmt.Fprintln(stdout, "No input mesh provided")
		return 1
	}
	if out == "" {
		fmt.Fprintln(stdout, "No output name provided")
		return 1
	}

	cfg := schedconfig.Default(runtime.NumCPU())
	if *configPath != "" {
		loaded, err := schedconfig.Load(*configPath, cfg)
		if err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		cfg = loaded
	}
	cfg = schedconfig.ApplyEnv(cfg)
	if *nproc >= 0 {
		cfg.NumWorkers = *nproc
	}
	n := clampNproc(cfg.NumWorkers)

	fmt.Fprint(stdout, "\nReading mesh        : ")
	readTimer := xtime.New()
	mesh, err := meshio.Open(in)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s\n", readTimer.Elapsed())
	fmt.Fprintf(stdout, "Input mesh          : version = %d, vertices = %d, tets = %d\n",
		mesh.Version, len(mesh.Vertices), len(mesh.Tetrahedra))

	k := cfg.ColoringConstantK
	if k < 1 {
		k = schedconfig.DefaultColoringConstantK
	}
	s := scheduler.NewWithColoringConstant(n, k)
	defer s.Shutdown()

	fmt.Fprint(stdout, "Tet neighbours      : ")
	ngbTimer := xtime.New()
	_, triangles, err := neighbours.SetNeighbours(s, mesh.Tetrahedra)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s\n", ngbTimer.Elapsed())
	fmt.Fprintf(stdout, "Boundary extraction : %d triangles\n", len(triangles))

	mesh.Triangles = triangles

	fmt.Fprint(stdout, "Writing mesh        : ")
	writeTimer := xtime.New()
	if err := mesh.WriteTo(out); err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s\n\n", writeTimer.Elapsed())

	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}
