package main

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/muurk/orblink/internal/httpclient"
)

// headerList collects repeated --header flags in command-line order.
type headerList []httpclient.Header

var _ pflag.Value = (*headerList)(nil)

func (h *headerList) String() string {
	parts := make([]string, len(*h))
	for i, header := range *h {
		parts[i] = header.String()
	}
	return strings.Join(parts, ", ")
}

func (h *headerList) Set(value string) error {
	header, err := httpclient.ParseHeader(value)
	if err != nil {
		return err
	}
	*h = append(*h, header)
	return nil
}

func (h *headerList) Type() string {
	return "header"
}
