package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// File names written by GenerateDevPKI.
const (
	CAFile        = "ca.pem"
	CAKeyFile     = "ca-key.pem"
	ServerFile    = "server.pem"
	ServerKeyFile = "server-key.pem"
	ClientFile    = "client.pem"
	ClientKeyFile = "client-key.pem"
)

// DevPKI lists the paths of a generated development PKI.
type DevPKI struct {
	CA, CAKey         string
	Server, ServerKey string
	Client, ClientKey string
}

type issued struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
	der  []byte
}

// GenerateDevPKI writes a self-signed CA, a server certificate valid for
// hosts, and a client certificate for clientName into outDir. Not for
// production use.
func GenerateDevPKI(hosts []string, clientName, outDir string) (DevPKI, error) {
	if len(hosts) == 0 {
		return DevPKI{}, fmt.Errorf("tlsutil: at least one host is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return DevPKI{}, fmt.Errorf("tlsutil: mkdir %s: %w", outDir, err)
	}

	now := time.Now()
	ca, err := issue(&x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"crewrisk dev"}, CommonName: "crewrisk dev CA"},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.AddDate(5, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}, nil)
	if err != nil {
		return DevPKI{}, fmt.Errorf("tlsutil: issue CA: %w", err)
	}

	serverTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{Organization: []string{"crewrisk dev"}, CommonName: hosts[0]},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			serverTemplate.IPAddresses = append(serverTemplate.IPAddresses, ip)
		} else {
			serverTemplate.DNSNames = append(serverTemplate.DNSNames, h)
		}
	}
	server, err := issue(serverTemplate, ca)
	if err != nil {
		return DevPKI{}, fmt.Errorf("tlsutil: issue server certificate: %w", err)
	}

	client, err := issue(&x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{Organization: []string{"crewrisk dev"}, CommonName: clientName},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}, ca)
	if err != nil {
		return DevPKI{}, fmt.Errorf("tlsutil: issue client certificate: %w", err)
	}

	pki := DevPKI{
		CA: filepath.Join(outDir, CAFile), CAKey: filepath.Join(outDir, CAKeyFile),
		Server: filepath.Join(outDir, ServerFile), ServerKey: filepath.Join(outDir, ServerKeyFile),
		Client: filepath.Join(outDir, ClientFile), ClientKey: filepath.Join(outDir, ClientKeyFile),
	}
	for _, out := range []struct {
		cert, key string
		c         *issued
	}{
		{pki.CA, pki.CAKey, ca},
		{pki.Server, pki.ServerKey, server},
		{pki.Client, pki.ClientKey, client},
	} {
		if err := writeIssued(out.cert, out.key, out.c); err != nil {
			return DevPKI{}, err
		}
	}
	return pki, nil
}

// issue signs template with parent, or self-signs when parent is nil.
func issue(template *x509.Certificate, parent *issued) (*issued, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	signerCert, signerKey := template, key
	if parent != nil {
		signerCert, signerKey = parent.cert, parent.key
	}
	der, err := x509.CreateCertificate(rand.Reader, template, signerCert, &key.PublicKey, signerKey)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return &issued{cert: cert, key: key, der: der}, nil
}

func writeIssued(certPath, keyPath string, c *issued) error {
	if err := writePEM(certPath, "CERTIFICATE", c.der); err != nil {
		return err
	}
	keyDER, err := x509.MarshalECPrivateKey(c.key)
	if err != nil {
		return fmt.Errorf("tlsutil: marshal key: %w", err)
	}
	return writePEM(keyPath, "EC PRIVATE KEY", keyDER)
}

func writePEM(path, blockType string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("tlsutil: write %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: data}); err != nil {
		_ = f.Close()
		return fmt.Errorf("tlsutil: encode %s: %w", path, err)
	}
	return f.Close()
}
