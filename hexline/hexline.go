// Package hexline renders a byte range as two stacked lines: an ASCII
// line (non-printable bytes shown as "..") above a hex line, useful for
// eyeballing a synthesized DNG frame's TIFF header or a WAV file's RIFF
// chunk headers without a full hex editor.
package hexline

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Print renders contents to stdout.
func Print(contents io.ReadSeeker, byteLimit int64, width int) error {
	return Write(os.Stdout, contents, byteLimit, width)
}

// fieldWidth is the byte-field size both TIFF (DNG) headers and RIFF
// (WAV) chunk headers are built from: a TIFF IFD entry's tag/type/count
// words and a RIFF chunk's fourCC/size words are each 4 bytes wide. Write
// inserts an extra space after every fieldWidth bytes on the hex line so
// those fields read as visually distinct groups instead of a flat run of
// digits.
const fieldWidth = 4

// Write renders contents to out: up to byteLimit bytes total (0 = no
// limit), wrapped at width bytes per line (0 = one unbroken line). The
// hex line groups bytes into fieldWidth-byte clusters with an extra space
// between groups, so a DNG's leading TIFF header words or a WAV's RIFF
// chunk fourCC+size pairs line up visually.
func Write(out io.Writer, contents io.ReadSeeker, byteLimit int64, width int) error {
	bufferSize := 1024 * 1024
	if width > 0 {
		bufferSize = width
	}

	totalBytesRead := int64(0)
	eof := false
	for !eof {
		start := totalBytesRead
		for line := 0; line < 2; line++ {
			contents.Seek(start, 0)
			buffer := make([]byte, bufferSize)

			out.Write([]byte(fmt.Sprintf("0x%06x: ", start)))

			lineBytesRead := 0
			done := false
			for !done {
				bytesRead, err := contents.Read(buffer)
				if err == io.EOF {
					eof = true
					break
				} else if err != nil {
					log.Errorf("Could not read file: %v", err)
					return err
				}
				for i := 0; i < bytesRead; i++ {
					currentByte := buffer[i]
					switch line {
					case 0:
						if currentByte < ' ' || currentByte > '~' {
							out.Write([]byte(".."))
						} else {
							out.Write([]byte(fmt.Sprintf(" %c", currentByte)))
						}
					case 1:
						out.Write([]byte(fmt.Sprintf("%02x", currentByte)))
						if lineBytesRead%fieldWidth == fieldWidth-1 {
							out.Write([]byte(" "))
						}
					}

					lineBytesRead++
					if line == 0 {
						totalBytesRead++
					}
					if width > 0 && lineBytesRead >= width {
						done = true
						break
					}
					if byteLimit > 0 && start+int64(lineBytesRead) >= byteLimit {
						done = true
						break
					}
				}
			}
			out.Write([]byte("\n"))
		}

		if byteLimit > 0 && totalBytesRead >= byteLimit {
			log.Debugf("Reached the byte limit of %d; ending early.", byteLimit)
			break
		}
	}

	return nil
}
