package dav

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func condRequest(headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/dav/files/x", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestCheckConditionalHeaders(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		etag    string
		exists  bool
		want    bool
	}{
		{"no headers", nil, "abc", true, true},
		{"if-match equal", map[string]string{"If-Match": "\"abc\""}, "abc", true, true},
		{"if-match unquoted", map[string]string{"If-Match": "abc"}, "abc", true, true},
		{"if-match mismatch", map[string]string{"If-Match": "\"old\""}, "abc", true, false},
		{"if-match missing resource", map[string]string{"If-Match": "\"abc\""}, "", false, false},
		{"if-match star", map[string]string{"If-Match": "*"}, "abc", true, true},
		{"if-none-match star exists", map[string]string{"If-None-Match": "*"}, "abc", true, false},
		{"if-none-match star missing", map[string]string{"If-None-Match": "*"}, "", false, true},
		{"if-none-match differs", map[string]string{"If-None-Match": "\"old\""}, "abc", true, true},
		{"if-none-match equal", map[string]string{"If-None-Match": "\"abc\""}, "abc", true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := checkConditionalHeaders(condRequest(tc.headers), tc.etag, tc.exists)
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
