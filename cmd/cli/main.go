package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "contract":
		handleContract(args)
	case "notify":
		handleNotify(args)
	case "jobs":
		handleJobs(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: contractwatch auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleContract(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: contractwatch contract <list|add|delete|dashboard>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listContracts(args[1:])
	case "add":
		addContract(args[1:])
	case "delete":
		deleteContract(args[1:])
	case "dashboard":
		showDashboard(args[1:])
	default:
		fmt.Printf("unknown contract command: %s\n", subCmd)
	}
}

func handleNotify(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: contractwatch notify <check|history>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "check":
		checkRenewals()
	case "history":
		notificationHistory(args[1:])
	default:
		fmt.Printf("unknown notify command: %s\n", subCmd)
	}
}

func handleJobs(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: contractwatch jobs <list>")
		return
	}

	switch args[0] {
	case "list":
		listJobs()
	default:
		fmt.Printf("unknown jobs command: %s\n", args[0])
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *username == "" || *password == "" {
		fmt.Println("Error: email, username, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":    *email,
		"username": *username,
		"password": *password,
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s\n", *email)
		if token, ok := result["token"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Contract commands
func listContracts(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	upcoming := fs.Bool("upcoming", false, "only contracts renewing within 30 days")
	fs.Parse(args)

	url := getAPIURL() + "/contracts"
	if *upcoming {
		url += "?upcoming_only=true"
	}

	req, _ := http.NewRequest("GET", url, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Contracts []map[string]interface{} `json:"contracts"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONTRACT\tCOMPANY\tRENEWAL\tDAYS LEFT")
	for _, c := range result.Contracts {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			c["id"], c["contract_name"], c["company_name"], c["renewal_date"], c["days_until_renewal"])
	}
	w.Flush()
}

func addContract(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	company := fs.String("company", "", "company name")
	name := fs.String("name", "", "contract name")
	start := fs.String("start", "", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD)")
	renewal := fs.String("renewal", "", "renewal date (YYYY-MM-DD)")
	email := fs.String("email", "", "notification email (optional)")
	notes := fs.String("notes", "", "notes (optional)")

	fs.Parse(args)

	if *company == "" || *name == "" || *start == "" || *end == "" || *renewal == "" {
		fmt.Println("Error: company, name, start, end, and renewal are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"company_name":       *company,
		"contract_name":      *name,
		"start_date":         *start,
		"end_date":           *end,
		"renewal_date":       *renewal,
		"notification_email": *email,
		"notes":              *notes,
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/contracts", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Contract created (id %v)\n", result["id"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func deleteContract(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: contractwatch contract delete <contract-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/contracts/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		fmt.Printf("✓ Contract %s deleted\n", args[0])
	} else {
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		fmt.Printf("✗ Delete failed: %v\n", result)
	}
}

func showDashboard(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/contracts/dashboard", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	fmt.Printf("Total contracts: %v\n", result["total_contracts"])
	fmt.Printf("Upcoming (30d):  %v\n", result["upcoming_count"])
	fmt.Printf("Overdue:         %v\n", result["overdue_count"])
}

// Notify commands
func checkRenewals() {
	req, _ := http.NewRequest("POST", getAPIURL()+"/notifications/check-renewals", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
		Results struct {
			EmailsSent int      `json:"emails_sent"`
			PushSent   int      `json:"push_notifications_sent"`
			Errors     []string `json:"errors"`
		} `json:"results"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	fmt.Printf("✓ Renewal check complete: %d emails, %d push notifications\n",
		result.Results.EmailsSent, result.Results.PushSent)
	for _, e := range result.Results.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}

func notificationHistory(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: contractwatch notify history <contract-id>")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/notifications/history/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Notifications []map[string]interface{} `json:"notifications"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tSENT\tMESSAGE")
	for _, n := range result.Notifications {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			n["id"], n["notification_type"], n["status"], n["send_date"], n["message"])
	}
	w.Flush()
}

// Job commands
func listJobs() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/jobs", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Jobs []map[string]interface{} `json:"jobs"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRIGGER\tNEXT FIRE")
	for _, j := range result.Jobs {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", j["id"], j["name"], j["trigger"], j["next_fire_time"])
	}
	w.Flush()
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("CONTRACTWATCH_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.contractwatch/token"
}

func saveToken(token string) error {
	os.MkdirAll(os.Getenv("HOME")+"/.contractwatch", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`ContractWatch CLI

Usage:
  contractwatch <command> [options]

Commands:
  auth       User authentication (register, login, logout, who)
  contract   Contract operations (list, add, delete, dashboard)
  notify     Notification operations (check, history)
  jobs       Scheduler introspection (list)
  help       Show this help message

Environment Variables:
  CONTRACTWATCH_API    API endpoint (default: http://localhost:8080/api)

Examples:
  contractwatch auth register -email user@example.com -username user -password pass
  contractwatch auth login -email user@example.com -password pass
  contractwatch contract list -upcoming
  contractwatch notify check
`)
}
