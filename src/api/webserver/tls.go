package webserver

import (
	"crypto/tls"
	"log"
	"os"
	"sync"
	"time"
)

// TLSReloader serves the cert/key pair from disk and picks up rotated files
// without a restart.
type TLSReloader struct {
	certFile string
	keyFile  string

	mu      sync.RWMutex
	cert    *tls.Certificate
	lastMod time.Time
}

func NewTLSReloader(certFile, keyFile string) (*TLSReloader, error) {
	r := &TLSReloader{certFile: certFile, keyFile: keyFile}
	if err := r.reload(); err != nil {
		return nil, err
	}
	go r.watch()
	return r, nil
}

func (r *TLSReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.lastMod = r.modTime()
	r.mu.Unlock()

	log.Printf("tls: certificate loaded from %s", r.certFile)
	return nil
}

// modTime returns the newer of the two file modification times.
func (r *TLSReloader) modTime() time.Time {
	var latest time.Time
	for _, f := range []string{r.certFile, r.keyFile} {
		if info, err := os.Stat(f); err == nil && info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}

func (r *TLSReloader) watch() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.RLock()
		seen := r.lastMod
		r.mu.RUnlock()

		if r.modTime().After(seen) {
			if err := r.reload(); err != nil {
				log.Printf("tls: reload failed: %v", err)
			}
		}
	}
}

func (r *TLSReloader) Config() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			r.mu.RLock()
			defer r.mu.RUnlock()
			return r.cert, nil
		},
	}
}
