package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/util"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// APICheck lists VMs through the configured client, which covers both
// reachability and credentials in one call.
type APICheck struct {
	URL    string
	Client vmrest.Directory
}

func (c *APICheck) Name() string     { return "api_reachable" }
func (c *APICheck) Category() string { return CategoryAPI }

func (c *APICheck) Run(ctx context.Context) CheckResult {
	vms, err := c.Client.ListVMs(ctx)
	if err == nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("%s answered with %s", c.URL, util.Count(len(vms), "VM")),
		}
	}

	res := CheckResult{
		Name:    c.Name(),
		Status:  StatusFail,
		Message: errors.Short(err),
	}
	switch errors.CodeOf(err) {
	case errors.ErrAuth:
		res.Message = "vmrest rejected the credentials"
		res.Suggestion = "Check VMWARE_USERNAME and VMWARE_PASSWORD, or re-run 'vmrest -C' to reset them"
	case errors.ErrNetwork:
		res.Message = "Cannot connect to " + c.URL
		res.Suggestion = "Start the REST service with 'vmrest' and check the URL and port"
	case errors.ErrTimeout:
		res.Message = "Timed out waiting for " + c.URL
		res.Suggestion = "Check that vmrest is responsive, or raise api.timeout"
	case errors.ErrInvalidResponse:
		res.Suggestion = "Check that the URL points at the /api/vms endpoint"
	}
	return res
}

func (c *APICheck) Fix() error {
	return nil // Nothing to fix locally
}

// NewAPIChecks creates the API checks. A nil client means the config could
// not produce one, which the config checks already report.
func NewAPIChecks(url string, client vmrest.Directory) []Check {
	if client == nil {
		return nil
	}
	return []Check{&APICheck{URL: url, Client: client}}
}
