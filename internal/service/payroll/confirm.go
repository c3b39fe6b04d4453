package payroll

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/jwt"
)

// BatchConfirmer signs and checks batch confirmations. jwt.Service satisfies it.
type BatchConfirmer interface {
	GenerateBatchConfirmationToken(c jwt.BatchConfirmation) (token string, expiresAt int64, err error)
	ValidateBatchConfirmationToken(tokenString string) (jwt.BatchConfirmation, error)
}

// previewDigest fingerprints the employees a preview would generate and the
// figures shown for them. Any change in either yields a different digest.
func previewDigest(preview payroll.BatchPreview) string {
	lines := make([]string, 0, len(preview.Previews)+len(preview.Warnings)+1)
	for _, p := range preview.Previews {
		lines = append(lines, "ok|"+p.EmployeeID+"|"+
			p.Calculation.Summary.GrossPay.StringFixed(2)+"|"+
			p.Calculation.Summary.NetPay.StringFixed(2))
	}
	for _, w := range preview.Warnings {
		lines = append(lines, "warn|"+w.EmployeeID+"|"+string(w.Kind))
	}
	sort.Strings(lines)
	lines = append(lines, "period|"+preview.PeriodID)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// previewedIDs lists the employees a confirmed preview covers.
func previewedIDs(preview payroll.BatchPreview) []string {
	ids := make([]string, 0, len(preview.Previews)+len(preview.Warnings))
	for _, p := range preview.Previews {
		ids = append(ids, p.EmployeeID)
	}
	for _, w := range preview.Warnings {
		ids = append(ids, w.EmployeeID)
	}
	return ids
}
