package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/gst_backend/utils"
)

// Ops tool: mint a bearer token for API testing and support sessions.
// Requires API_SECRET and TOKEN_HOUR_LIFESPAN to match the server env.
func main() {
	userID := flag.Int("user-id", 0, "Required: user id")
	businessID := flag.String("business-id", "", "Required: business id (uuid)")
	role := flag.String("role", "user", "Role claim (user/admin)")
	flag.Parse()

	if *userID == 0 || strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--user-id and --business-id are required")
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(*userID, *businessID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
