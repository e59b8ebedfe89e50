package services

import (
	"os"
	"testing"

	"github.com/larsjuhl/kantine-kiosk/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}
