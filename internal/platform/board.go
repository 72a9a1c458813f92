package platform

import (
	"os"
	"path/filepath"
	"strings"

	"hopper/internal/hostsvc"
)

const (
	boardNameRel    = "class/dmi/id/board_name"
	boardVersionRel = "class/dmi/id/board_version"
	productSKURel   = "class/dmi/id/product_sku"
)

// Board identifies the appliance mainboard.
type Board struct {
	Model    string
	Revision string
}

// Revised reports whether the board is a revision B or later unit. Revised
// boards carry the updated reader controller and tolerate sustained boost
// clocks.
func (b Board) Revised() bool {
	rev := strings.TrimSpace(b.Revision)
	if rev == "" {
		return false
	}
	return rev[0] >= 'B'
}

// DetectBoard reads the board model and revision from the DMI tree under
// sysfsRoot. An unreadable model is an error; a missing revision defaults
// to the launch revision A.
func DetectBoard(sysfsRoot string) (Board, error) {
	model, err := readSysValue(sysfsRoot, boardNameRel)
	if err != nil {
		return Board{}, hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "board-model", "read "+boardNameRel, err)
	}
	if model == "" {
		return Board{}, hostsvc.Wrap(hostsvc.ErrHardware, "platform", "board-model", "empty board name", nil)
	}

	revision, err := readSysValue(sysfsRoot, boardVersionRel)
	if err != nil || revision == "" {
		revision = "A"
	}
	return Board{Model: model, Revision: revision}, nil
}

// DetectDevUnit reports whether the appliance is a development unit. The
// factory encodes development units with a -DEV suffix on the product SKU.
func DetectDevUnit(sysfsRoot string) (bool, error) {
	sku, err := readSysValue(sysfsRoot, productSKURel)
	if err != nil {
		return false, hostsvc.Wrap(hostsvc.ErrUnavailable, "platform", "dev-unit", "read "+productSKURel, err)
	}
	return strings.HasSuffix(strings.ToUpper(sku), "-DEV"), nil
}

func readSysValue(root, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
