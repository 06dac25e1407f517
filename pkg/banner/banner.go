package banner

import "fmt"

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗ ██████╗ ██████╗ ██████╗ ███████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔════╝██╔═══██╗██╔══██╗██╔════╝
██║     ███████║███████║   ██║   ██║     ██║   ██║██████╔╝█████╗
██║     ██╔══██║██╔══██║   ██║   ██║     ██║   ██║██╔══██╗██╔══╝
╚██████╗██║  ██║██║  ██║   ██║   ╚██████╗╚██████╔╝██║  ██║███████╗
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝    ╚═════╝ ╚═════╝ ╚═╝  ╚═╝╚══════╝
`

// Print writes the startup banner with the effective runtime settings.
func Print(addr, dbPath, participant, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	if addr != "" {
		fmt.Printf("Diagnostics: %s\n", addr)
	}
	fmt.Printf("Snapshot:    %s\n", dbPath)
	fmt.Printf("Participant: %s\n", participant)
	if version != "" {
		fmt.Printf("Version:     %s\n", version)
	}
	fmt.Println("\n== Diagnostics endpoints ======================================")
	fmt.Println("GET /healthz                          - liveness")
	fmt.Println("GET /readyz                           - readiness (snapshot open)")
	fmt.Println("GET /metrics                          - prometheus metrics")
	fmt.Println("GET /v1/conversations                 - conversation summaries")
	fmt.Println("GET /v1/conversations/{id}/messages   - full message sequence")
}
