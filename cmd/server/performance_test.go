package main

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// largeTenderBody builds a tender with n participants whose registrations
// fall inside one another's windows, so every pairwise detector has work.
func largeTenderBody(tenderID int64, n int) string {
	var parts []string
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		parts = append(parts, fmt.Sprintf(`{"id":%d,"company_name":"Company %d","trust_score":%d,
			"proposed_price":"%d.%02d","delivery_time_days":%d,"warranty_months":12,
			"registration_time":%q,"ip_address":"192.168.1.%d",
			"documents":[{"document_type":"technical","created_by_software":"Word","file_size_bytes":%d,
			"extracted_text":"road maintenance asphalt resurfacing plan variant %d"}]}`,
			i, i, 40+i%50, 900+i*7, i%100, 20+i%60, i,
			base.Add(time.Duration(i)*time.Minute).Format(time.RFC3339), 100000+i*10, i))
	}
	return fmt.Sprintf(`{"tender":{"id":%d,"estimated_budget":"1200","participants":[%s]}}`,
		tenderID, strings.Join(parts, ","))
}

func TestEvaluateEndpoint_Performance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	s := setupRouter(t, false)
	start := time.Now()
	w := s.do("POST", "/v1/evaluations", largeTenderBody(77, 40))
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Less(t, elapsed, 5*time.Second, "40-participant tender took %v", elapsed)
	t.Logf("40 participants evaluated in %v", elapsed)
}

func BenchmarkEvaluateEndpoint(b *testing.B) {
	s := setupRouter(b, false)

	bodies := make([]string, b.N)
	for i := range bodies {
		bodies[i] = largeTenderBody(int64(i+1), 10)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := s.do("POST", "/v1/evaluations", bodies[i])
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}
