package support

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/cucumber/godog"
)

// aLicenseServerThat starts an httptest license server that accepts or
// refuses every verification request.
func (testCtx *TestContext) aLicenseServerThat(verdict string) error {
	accept := verdict == "accepts"
	testCtx.LicenseServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/license/verify" {
			http.NotFound(w, r)
			return
		}
		testCtx.LicenseRequests++
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{"success": accept}
		if !accept {
			resp["code"] = -10003
			resp["message"] = "license expired"
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	return nil
}

// theLicenseServerShouldHaveBeenAsked verifies the request count.
func (testCtx *TestContext) theLicenseServerShouldHaveBeenAsked(n int) error {
	if testCtx.LicenseRequests != n {
		return fmt.Errorf("license server received %d requests, want %d", testCtx.LicenseRequests, n)
	}
	return nil
}

// RegisterLicenseSteps registers license server steps.
func (testCtx *TestContext) RegisterLicenseSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a license server that (accepts|refuses) every device$`, testCtx.aLicenseServerThat)
	sc.Step(`^the license server should have been asked (\d+) times?$`, testCtx.theLicenseServerShouldHaveBeenAsked)
}
