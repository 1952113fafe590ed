package view

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/gwientjes/wall-cli/internal/wall"
)

// RenderImage renders a post image for the terminal via chafa. The image
// reference is either an inline data URL (the usual case for wall posts)
// or an http(s) URL.
func RenderImage(imageRef string, width, height int) (string, error) {
	if width < 30 {
		width = 40
	}
	if height < 10 {
		height = 18
	}

	chafaPath, err := exec.LookPath("chafa")
	if err != nil {
		return "", fmt.Errorf("chafa is not installed")
	}

	imageData, err := loadImageBytes(imageRef)
	if err != nil {
		return "", err
	}

	args := []string{
		"--size", fmt.Sprintf("%dx%d", width, height),
		"--view-size", fmt.Sprintf("%dx%d", width, height),
		"--align", "top,center",
		"--format", "symbols",
		"-",
	}
	cmd := exec.Command(chafaPath, args...)
	cmd.Stdin = bytes.NewReader(imageData)
	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))

	if err != nil {
		return "", fmt.Errorf("render image via chafa: %w: %s", err, trimmed)
	}
	if trimmed == "" {
		return "", fmt.Errorf("empty output")
	}
	return trimmed, nil
}

func loadImageBytes(imageRef string) ([]byte, error) {
	if strings.HasPrefix(imageRef, "data:") {
		raw, err := wall.DecodeDataURL(imageRef)
		if err != nil {
			return nil, err
		}
		if len(raw) > wall.MaxImageBytes {
			return nil, fmt.Errorf("inline image too large: %d bytes", len(raw))
		}
		return raw, nil
	}

	client := &http.Client{Timeout: 8 * time.Second}
	resp, err := client.Get(imageRef)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, wall.MaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return raw, nil
}
