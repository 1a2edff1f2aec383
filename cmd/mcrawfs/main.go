package main

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/motioncam/mcraw-vfs/audiosync"
	"github.com/motioncam/mcraw-vfs/bw64"
	"github.com/motioncam/mcraw-vfs/hexline"
	"github.com/motioncam/mcraw-vfs/mcraw"
	"github.com/motioncam/mcraw-vfs/mcrawmock"
	"github.com/motioncam/mcraw-vfs/vfs"
)

// demoDecoderFactory treats any input path as an opaque byte blob and
// carves it into a synthetic frame sequence at a fixed cadence, so this
// tool is runnable end to end without a real MCRAW codec. A real
// deployment replaces this factory (and mcrawmock.NewDngEncoder below)
// with a real mcraw.Decoder/mcraw.DNGEncoder — nothing else in the
// command tree changes.
func demoDecoderFactory(frameCount int, frameIntervalNs int64) mcraw.DecoderFactory {
	return func(path string) (mcraw.Decoder, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		frames := make([]mcraw.Timestamp, frameCount)
		frameData := make(map[mcraw.Timestamp][]byte, frameCount)
		chunkSize := (len(raw) + frameCount - 1) / frameCount
		if chunkSize == 0 {
			chunkSize = 1
		}
		for i := 0; i < frameCount; i++ {
			ts := mcraw.Timestamp(int64(i) * frameIntervalNs)
			frames[i] = ts
			start := i * chunkSize
			end := start + chunkSize
			if start > len(raw) {
				start = len(raw)
			}
			if end > len(raw) {
				end = len(raw)
			}
			frameData[ts] = raw[start:end]
		}

		return mcrawmock.NewDecoderFactory(mcrawmock.DecoderConfig{
			Frames:            frames,
			FrameData:         frameData,
			ContainerMetadata: []byte(`{}`),
			SampleRateHz:      48000,
			Channels:          1,
		})(path)
	}
}

func openVFS(filename string) (*vfs.VirtualFileSystem, error) {
	return vfs.New(vfs.Config{
		SrcPath:        filename,
		DecoderFactory: demoDecoderFactory(30, 33_333_333),
		Encoder:        mcrawmock.NewDngEncoder,
		AudioWriter:    mcraw.DefaultAudioWriter{},
		Options:        0,
		DraftScale:     4,
	})
}

// readEntryFully reads an entry's full contents, handling both the
// synchronous static/audio path and the asynchronous frame-read callback.
func readEntryFully(v *vfs.VirtualFileSystem, entry mcraw.Entry) ([]byte, error) {
	dst := make([]byte, entry.Size)
	if entry.UserData.Kind != mcraw.UserDataTimestamp {
		n := v.ReadFile(entry, 0, 0, entry.Size, dst, func(int, int) {})
		return dst[:n], nil
	}

	var (
		wg        sync.WaitGroup
		bytesRead int
		errorCode int
	)
	wg.Add(1)
	v.ReadFile(entry, 0, 0, entry.Size, dst, func(n, code int) {
		bytesRead, errorCode = n, code
		wg.Done()
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("timed out reading entry %q", entry.Name)
	}

	if errorCode != 0 {
		return nil, fmt.Errorf("failed to read entry %q", entry.Name)
	}
	return dst[:bytesRead], nil
}

func main() {
	debugValue := false

	var rootCommand = &cobra.Command{
		Use:   "mcrawfs",
		Short: "Lazily-rendered virtual filesystem over camera/audio recording containers",
		Long: `
This tool projects a recording container into a virtual directory of
per-frame DNG files plus a synchronized audio.wav, rendering each file
on demand instead of materializing the whole recording up front.
`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugValue {
				vfs.SetLogLevel(logrus.DebugLevel)
				mcraw.SetLogLevel(logrus.DebugLevel)
				audiosync.SetLogLevel(logrus.DebugLevel)
				bw64.SetLogLevel(logrus.DebugLevel)
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
			os.Exit(1)
		},
	}
	rootCommand.PersistentFlags().BoolVar(&debugValue, "debug", false, "Enable debug output")

	{
		dumpValue := false
		filterValue := ""
		var listCommand = &cobra.Command{
			Use:   "list <filename>",
			Short: "List the virtual entries projected from the given recording",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				v, err := openVFS(args[0])
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				defer v.Close()

				entries, err := v.ListFiles(filterValue)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}

				for _, e := range entries {
					fmt.Printf("%10d  %s\n", e.Size, e.Name)
				}

				if dumpValue {
					spew.Dump(entries)
				}
			},
		}
		listCommand.Flags().BoolVar(&dumpValue, "dump", false, "Dump the full entry list")
		listCommand.Flags().StringVar(&filterValue, "filter", "", "Glob filter to apply to entry names")
		rootCommand.AddCommand(listCommand)
	}

	{
		var catCommand = &cobra.Command{
			Use:   "cat <filename> <entry>",
			Short: "Print a virtual entry's rendered bytes to stdout",
			Args:  cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				v, err := openVFS(args[0])
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				defer v.Close()

				entry, ok := v.FindEntry(args[1])
				if !ok {
					fmt.Printf("Entry not found: %s\n", args[1])
					os.Exit(1)
				}

				data, err := readEntryFully(v, entry)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				os.Stdout.Write(data)
			},
		}
		rootCommand.AddCommand(catCommand)
	}

	{
		var exportCommand = &cobra.Command{
			Use:   "export",
			Short: "Export a rendered entry to a file",
			Run: func(cmd *cobra.Command, args []string) {
				cmd.Help()
				os.Exit(1)
			},
		}
		rootCommand.AddCommand(exportCommand)

		var exportAudioCommand = &cobra.Command{
			Use:   "audio <filename> <output-file>",
			Short: "Export the synchronized audio.wav entry",
			Args:  cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				v, err := openVFS(args[0])
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				defer v.Close()

				entry, ok := v.FindEntry("audio.wav")
				if !ok {
					fmt.Printf("Recording has no audio.\n")
					os.Exit(1)
				}

				data, err := readEntryFully(v, entry)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				if err := os.WriteFile(args[1], data, 0644); err != nil {
					fmt.Printf("Error writing %s: %v\n", args[1], err)
					os.Exit(1)
				}
				fmt.Printf("Wrote %d bytes to %s\n", len(data), args[1])
			},
		}
		exportCommand.AddCommand(exportAudioCommand)

		var exportFrameCommand = &cobra.Command{
			Use:   "frame <filename> <entry> <output-file>",
			Short: "Export a single rendered DNG frame",
			Args:  cobra.ExactArgs(3),
			Run: func(cmd *cobra.Command, args []string) {
				v, err := openVFS(args[0])
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				defer v.Close()

				entry, ok := v.FindEntry(args[1])
				if !ok {
					fmt.Printf("Entry not found: %s\n", args[1])
					os.Exit(1)
				}

				data, err := readEntryFully(v, entry)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				if err := os.WriteFile(args[2], data, 0644); err != nil {
					fmt.Printf("Error writing %s: %v\n", args[2], err)
					os.Exit(1)
				}
				fmt.Printf("Wrote %d bytes to %s\n", len(data), args[2])
			},
		}
		exportCommand.AddCommand(exportFrameCommand)
	}

	{
		byteLimit := int64(120)
		width := 16
		var hexdumpCommand = &cobra.Command{
			Use:   "hexdump <filename> <entry>",
			Short: "Hexdump a rendered entry's bytes",
			Long: `
Renders the named entry (a DNG frame or audio.wav) and prints its bytes
as a stacked ASCII/hex dump.
`,
			Args: cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				v, err := openVFS(args[0])
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				defer v.Close()

				entry, ok := v.FindEntry(args[1])
				if !ok {
					fmt.Printf("Entry not found: %s\n", args[1])
					os.Exit(1)
				}

				data, err := readEntryFully(v, entry)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}

				if err := hexline.Write(os.Stdout, bytes.NewReader(data), byteLimit, width); err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
			},
		}
		hexdumpCommand.Flags().Int64Var(&byteLimit, "byte-limit", byteLimit, "The number of bytes to print; use 0 for no limit")
		hexdumpCommand.Flags().IntVar(&width, "width", width, "Bytes per line; use 0 for one unbroken line")
		rootCommand.AddCommand(hexdumpCommand)
	}

	if err := rootCommand.Execute(); err != nil {
		panic(err)
	}
	os.Exit(0)
}
