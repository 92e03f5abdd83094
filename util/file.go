package util

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// WriteLines writes every line followed by a newline
func WriteLines(w io.Writer, lines ...string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// takes a save path and a variable number of strings and writes them to file separated by new lines
func WriteToFile(savePath string, content ...string) error {
	if err := EnsureDir(filepath.Dir(savePath)); err != nil {
		return err
	}
	f, err := os.Create(savePath)
	if err != nil {
		return err
	}
	if err := WriteLines(f, content...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EnsureDir creates dir and its parents when missing
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		return os.MkdirAll(dir, os.ModePerm)
	}
	return nil
}
