// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/lexresearch/api"
	"github.com/poiesic/lexresearch/core"
)

const requestTimeout = 30 * time.Second

// apiClient talks to a running research server.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(c *cli.Context) (*apiClient, error) {
	base := c.String("server")
	if base == "" {
		v, err := loadSettings(c.String("config"))
		if err != nil {
			return nil, err
		}
		base = v.GetString("server.url")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	return &apiClient{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: requestTimeout},
	}, nil
}

func (a *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if w, ok := out.(io.Writer); ok {
		_, err = io.Copy(w, resp.Body)
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func jobIDArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("exactly one job id is required")
	}
	id := c.Args().First()
	if !core.IsJobID(id) {
		return "", fmt.Errorf("invalid job id %q", id)
	}
	return id, nil
}

func submitCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a research query is required")
	}

	client, err := newAPIClient(c)
	if err != nil {
		return err
	}

	req := api.ResearchRequest{
		Query:     query,
		Format:    c.String("format"),
		Length:    c.String("length"),
		Providers: c.StringSlice("provider"),
	}
	if c.IsSet("year-start") {
		y := c.Int("year-start")
		req.YearStart = &y
	}
	if c.IsSet("year-end") {
		y := c.Int("year-end")
		req.YearEnd = &y
	}

	var sub api.SubmitResponse
	if err := client.do(c.Context, http.MethodPost, "/research", req, &sub); err != nil {
		return err
	}

	if !c.Bool("wait") {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", sub.JobID, sub.Status)
		return nil
	}

	job, err := client.poll(c.Context, sub.JobID, c.Duration("poll-interval"))
	if err != nil {
		return err
	}
	if job.Status == core.StatusFailed {
		return fmt.Errorf("research %s failed: %s", job.JobID, job.Error)
	}
	fmt.Fprintln(c.App.Writer, job.Content)
	return nil
}

func (a *apiClient) poll(ctx context.Context, id string, interval time.Duration) (*api.JobResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var job api.JobResponse
		if err := a.do(ctx, http.MethodGet, "/research/"+id, nil, &job); err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return &job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func statusCommand(c *cli.Context) error {
	id, err := jobIDArg(c)
	if err != nil {
		return err
	}
	client, err := newAPIClient(c)
	if err != nil {
		return err
	}

	var job api.JobResponse
	if err := client.do(c.Context, http.MethodGet, "/research/"+id, nil, &job); err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}

func listCommand(c *cli.Context) error {
	client, err := newAPIClient(c)
	if err != nil {
		return err
	}

	var jobs []api.SummaryResponse
	if err := client.do(c.Context, http.MethodGet, "/research", nil, &jobs); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB ID\tSTATUS\tSTARTED\tQUERY")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.JobID, j.Status, j.StartedAt.Format(time.RFC3339), j.Query)
	}
	return tw.Flush()
}

func deleteCommand(c *cli.Context) error {
	id, err := jobIDArg(c)
	if err != nil {
		return err
	}
	client, err := newAPIClient(c)
	if err != nil {
		return err
	}

	var resp api.DeleteResponse
	if err := client.do(c.Context, http.MethodDelete, "/research/"+id, nil, &resp); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s\t%s\n", resp.JobID, resp.Status)
	return nil
}

func reportCommand(c *cli.Context) error {
	id, err := jobIDArg(c)
	if err != nil {
		return err
	}
	client, err := newAPIClient(c)
	if err != nil {
		return err
	}
	return client.do(c.Context, http.MethodGet, "/resources/report/"+id, nil, c.App.Writer)
}
