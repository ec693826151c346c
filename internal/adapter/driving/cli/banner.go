package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/tlc-analytics/taxi-trip-kpi-go/pkg/version"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
         /$$$$$$$$ /$$$$$$  /$$   /$$ /$$$$$$       /$$   /$$ /$$$$$$$  /$$$$$$
        |__  $$__//$$__  $$| $$  / $$|_  $$_/      | $$  /$$/| $$__  $$|_  $$_/
           | $$  | $$  \ $$|  $$/ $$/  | $$        | $$ /$$/ | $$  \ $$  | $$
           | $$  | $$$$$$$$ \  $$$$/   | $$        | $$$$$/  | $$$$$$$/  | $$
           | $$  | $$__  $$  >$$  $$   | $$        | $$  $$  | $$____/   | $$
           | $$  | $$  | $$ /$$/\  $$  | $$        | $$\  $$ | $$        | $$
           | $$  | $$  | $$| $$  \ $$ /$$$$$$      | $$ \  $$| $$       /$$$$$$
           |__/  |__/  |__/|__/  |__/|______/      |__/  \__/|__/      |______/
        `
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(yellow(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("Taxi Trip KPI CLI (v%s)", formattedVersion)))
}

// checkLatestVersion verifica se uma versão mais recente está disponível.
func checkLatestVersion(currentVersion string) {
	version.CheckLatestVersion(currentVersion)
}
