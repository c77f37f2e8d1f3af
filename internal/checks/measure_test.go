package checks

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	. "github.com/onsi/gomega"

	"ozzus/checkplugin/pkg/plugin"
	"ozzus/checkplugin/pkg/status"
)

func hostPort(t *testing.T, raw string) (string, int) {
	u, err := url.Parse(raw)
	Expect(err).NotTo(HaveOccurred())
	host, port, err := net.SplitHostPort(u.Host)
	Expect(err).NotTo(HaveOccurred())
	p, err := strconv.Atoi(port)
	Expect(err).NotTo(HaveOccurred())
	return host, p
}

func TestHTTPMeasure(t *testing.T) {
	RegisterTestingT(t)

	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Check")
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	host, port := hostPort(t, server.URL)

	m, err := NewHTTP(status.KindActive, plugin.Config{
		Host: host,
		Port: port,
		Blob: map[string]any{"path": "healthz", "headers": map[string]any{"X-Check": "yes"}},
	})
	Expect(err).NotTo(HaveOccurred())

	res, err := m.Measure(context.Background())
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Severity()).To(Equal(status.OK))
	Expect(res.Message()).To(ContainSubstring("/healthz returned 200 OK"))
	Expect(gotHeader).To(Equal("yes"))

	m, err = NewHTTP(status.KindHost, plugin.Config{Host: "ignored", Blob: map[string]any{"url": server.URL + "/broken"}})
	Expect(err).NotTo(HaveOccurred())

	res, err = m.Measure(context.Background())
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Severity()).To(Equal(status.DOWN))
	Expect(status.Validate(res)).To(Succeed())
}

func TestHTTPUnreachable(t *testing.T) {
	RegisterTestingT(t)

	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	m, err := NewHTTP(status.KindService, plugin.Config{Host: "x", Blob: map[string]any{"url": target}})
	Expect(err).NotTo(HaveOccurred())

	res, err := m.Measure(context.Background())
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Severity()).To(Equal(status.CRITICAL))
	Expect(res.Message()).To(ContainSubstring("failed"))
}

func TestPrepareURL(t *testing.T) {
	RegisterTestingT(t)

	u, err := prepareURL("", plugin.Config{Host: "web1", Port: 8443, UseSSL: true}, "status")
	Expect(err).NotTo(HaveOccurred())
	Expect(u).To(Equal("https://web1:8443/status"))

	u, err = prepareURL("example.com/x", plugin.Config{}, "/")
	Expect(err).NotTo(HaveOccurred())
	Expect(u).To(Equal("http://example.com/x"))

	_, err = prepareURL("", plugin.Config{}, "/")
	Expect(err).To(HaveOccurred())

	_, err = NewHTTP(status.KindActive, plugin.Config{})
	Expect(err).To(MatchError(plugin.ErrConfiguration))
}

func TestTCPMeasure(t *testing.T) {
	RegisterTestingT(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	addr := ln.Addr().(*net.TCPAddr)

	m, err := NewTCP(status.KindHost, plugin.Config{Host: "127.0.0.1", Port: addr.Port})
	Expect(err).NotTo(HaveOccurred())

	res, err := m.Measure(context.Background())
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Severity()).To(Equal(status.UP))

	Expect(ln.Close()).To(Succeed())

	res, err = m.Measure(context.Background())
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Severity()).To(Equal(status.DOWN))
	Expect(res.Message()).To(HavePrefix("connect to 127.0.0.1:"))

	_, err = NewTCP(status.KindActive, plugin.Config{})
	Expect(err).To(MatchError(plugin.ErrConfiguration))
}
