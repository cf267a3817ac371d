package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/pipeline"
	"github.com/ppiankov/ipintel/internal/validate"
)

// MockChecker implements Checker interface
type MockChecker struct {
	ShouldError bool
	calls       atomic.Int32
}

func (m *MockChecker) CheckIP(ctx context.Context, ip string) (*pipeline.Result, error) {
	m.calls.Add(1)
	time.Sleep(5 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("lookup error")
	}
	return &pipeline.Result{
		Record: &model.Record{IPAddress: ip},
		Risk:   model.Risk{Level: model.RiskMinimal},
	}, nil
}

func TestBatchProcessor_ProcessIPs(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2, false)

	ips := []string{"8.8.8.8", "1.1.1.1", "9.9.9.9"}
	results := processor.ProcessIPs(context.Background(), ips)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.IP, res.Error)
			continue
		}
		if res.IP != ips[i] {
			t.Errorf("result %d: expected IP %s, got %s", i, ips[i], res.IP)
		}
		if res.Record == nil || res.Record.IPAddress != ips[i] {
			t.Errorf("result %d: expected record for %s", i, ips[i])
		}
	}
}

func TestBatchProcessor_ProcessIPs_ManyJobs(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2, false)

	// Far more jobs than the pool's buffers hold
	var ips []string
	for i := 0; i < 50; i++ {
		ips = append(ips, fmt.Sprintf("203.0.113.%d", i+1))
	}
	results := processor.ProcessIPs(context.Background(), ips)

	if len(results) != 50 {
		t.Fatalf("expected 50 results, got %d", len(results))
	}
	if got := checker.calls.Load(); got != 50 {
		t.Errorf("expected 50 lookups, got %d", got)
	}
}

func TestBatchProcessor_ProcessIPs_Error(t *testing.T) {
	checker := &MockChecker{ShouldError: true}
	processor := NewBatchProcessor(checker, 2, false)

	results := processor.ProcessIPs(context.Background(), []string{"8.8.8.8"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].GetError() == nil {
		t.Error("expected error")
	}
}

func TestBatchProcessor_ProcessIPs_InvalidAndPrivate(t *testing.T) {
	checker := &MockChecker{}
	processor := NewBatchProcessor(checker, 2, true)

	results := processor.ProcessIPs(context.Background(), []string{"not-an-ip", "192.168.1.1", "8.8.8.8"})

	if !errors.Is(results[0].Error, validate.ErrInvalidIP) {
		t.Errorf("expected ErrInvalidIP, got %v", results[0].Error)
	}
	if results[1].Skipped == "" {
		t.Error("expected private address to be skipped")
	}
	if results[2].Error != nil || results[2].Record == nil {
		t.Errorf("expected lookup for public address, got %+v", results[2])
	}
	if got := checker.calls.Load(); got != 1 {
		t.Errorf("expected only the public address to be looked up, got %d calls", got)
	}
}

func TestBatchProcessor_ProcessIPs_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 2, false)
	results := processor.ProcessIPs(context.Background(), []string{})

	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessIPs_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockChecker{}, 1, false)
	results := processor.ProcessIPs(ctx, []string{"8.8.8.8", "1.1.1.1"})

	for _, res := range results {
		if res == nil {
			t.Fatal("expected a result for every input")
		}
		if res.Error == nil && res.Record == nil {
			t.Errorf("expected error or record for %s", res.IP)
		}
	}
}

func TestReadIPs(t *testing.T) {
	input := `# comment line
8.8.8.8
1.1.1.1, 9.9.9.9;8.8.4.4
  2001:4860:4860:0000:0000:0000:0000:8888	not-an-ip

8.8.8.8
`
	ips, err := ReadIPs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadIPs failed: %v", err)
	}

	expected := []string{"8.8.8.8", "1.1.1.1", "9.9.9.9", "8.8.4.4", "2001:4860:4860::8888", "not-an-ip"}
	if len(ips) != len(expected) {
		t.Fatalf("expected %d IPs, got %d: %v", len(expected), len(ips), ips)
	}
	for i, ip := range expected {
		if ips[i] != ip {
			t.Errorf("expected IP %d to be %s, got %s", i, ip, ips[i])
		}
	}
}

func TestReadIPsFromFile_NonExistent(t *testing.T) {
	_, err := ReadIPsFromFile("/non/existent/file")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestCheckResult_GetError(t *testing.T) {
	err := errors.New("test error")
	res := &CheckResult{Error: err}
	if !errors.Is(res.GetError(), err) {
		t.Errorf("expected error %v, got %v", err, res.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ips.txt")
	if err := os.WriteFile(path, []byte("8.8.8.8\n1.1.1.1\n"), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	processor := NewBatchProcessor(&MockChecker{}, 2, false)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockChecker{}, 2, false)
	_, err := processor.ProcessFile(context.Background(), "/non/existent/file")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}
