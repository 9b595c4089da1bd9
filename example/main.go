package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"gifdecoder"
)

func main() {
	fmt.Println("GIF Decoder Examples")
	fmt.Println("====================")

	if len(os.Args) > 1 {
		arg := os.Args[1]
		var err error
		if filepath.Ext(arg) == ".json" {
			err = runJob(arg)
		} else {
			err = probe(arg, 0, "")
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("\nUsage:")
	fmt.Println("  example input.gif    decode one file and print its frames")
	fmt.Println("  example job.json     decode every input listed in a job file")
	fmt.Println("\nJob file format:")
	fmt.Println(`  {"outdir": "frames", "inputs": [{"path": "a.gif", "skip": 0}]}`)
}

// runJob decodes every input listed in a JSON job file.
func runJob(path string) error {
	job, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading job file")
	}
	outdir := gjson.GetBytes(job, "outdir").String()
	if outdir != "" {
		if err := os.MkdirAll(outdir, 0755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}

	inputs := gjson.GetBytes(job, "inputs")
	if !inputs.IsArray() {
		return errors.New("job file has no inputs array")
	}
	for _, in := range inputs.Array() {
		p := in.Get("path").String()
		skip := in.Get("skip").Int()
		fmt.Printf("\n=== %s (skip %d)\n", p, skip)
		if err := probe(p, skip, outdir); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
	return nil
}

// probe decodes one GIF file, prints every frame descriptor and, when outdir
// is set, writes each frame as a PNG.
func probe(path string, skip int64, outdir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	d := gifdecoder.NewGIFDecoder(data)
	total, complete := d.FrameCount()
	fmt.Printf("%d frame(s), complete=%v\n", total, complete)

	d.SetSkip(skip)
	d.SetAppExtensionFunc(func(e *gifdecoder.AppExtension) {
		fmt.Printf("  app extension %q (%d sub-blocks)\n", e.ID(), len(e.Data()))
	})

	base := filepath.Base(path)
	var writeErr error
	ret := d.Decode(func(f *gifdecoder.Frame) {
		fmt.Printf("  frame %d: %dx%d at (%d,%d), %d colors, delay %dms, disposal %d",
			f.Index, f.Width, f.Height, f.X, f.Y, f.ColorCount, f.Delay*10, f.Disposal)
		if f.Transparent >= 0 {
			fmt.Printf(", transparent %d", f.Transparent)
		}
		if f.Interlaced {
			fmt.Printf(", interlaced")
		}
		fmt.Println()

		if outdir != "" && writeErr == nil {
			name := filepath.Join(outdir, fmt.Sprintf("%s.%03d.png", base, f.Index))
			writeErr = writePNG(name, f)
		}
	})
	if writeErr != nil {
		return writeErr
	}
	if ret == 0 {
		return errors.Errorf("%s is not a decodable GIF", path)
	}
	if ret < 0 {
		fmt.Printf("input truncated after %d frame(s)\n", -ret)
	}
	return nil
}

func writePNG(name string, f *gifdecoder.Frame) error {
	out, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "creating frame file")
	}
	defer out.Close()
	if err := png.Encode(out, f.Image()); err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}
	return nil
}
