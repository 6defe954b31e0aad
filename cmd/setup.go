package cmd

import (
    "fmt"
    "os"
    "strconv"
    "procsync/internal/config"
    "procsync/pkg/models"
    "github.com/AlecAivazis/survey/v2"
    "github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
    Use:   "setup",
    Short: "Initial configuration setup",
    Run:   runSetup,
}

func init() {
    rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
    fmt.Println("Setting up ProcSync...")
    fmt.Println()

    // Check if config already exists
    if config.Exists() {
        var overwrite bool
        prompt := &survey.Confirm{
            Message: "Configuration already exists. Do you want to overwrite it?",
            Default: false,
        }
        survey.AskOne(prompt, &overwrite)
        if !overwrite {
            fmt.Println("Setup cancelled.")
            return
        }
    }

    cfg := models.Defaults()

    fmt.Println("Database Configuration")
    fmt.Println("----------------------")

    databaseQs := []*survey.Question{
        {
            Name: "operationalpath",
            Prompt: &survey.Input{
                Message: "Operational database path:",
                Default: cfg.Databases.OperationalPath,
            },
            Validate: survey.Required,
        },
        {
            Name: "analyticspath",
            Prompt: &survey.Input{
                Message: "Analytics database path:",
                Default: cfg.Databases.AnalyticsPath,
            },
            Validate: survey.Required,
        },
        {
            Name: "timeout",
            Prompt: &survey.Input{
                Message: "Connection timeout:",
                Default: cfg.Databases.Timeout,
            },
            Validate: survey.Required,
        },
    }

    err := survey.Ask(databaseQs, &cfg.Databases)
    if err != nil {
        fmt.Printf("Error: %v\n", err)
        os.Exit(1)
    }

    fmt.Println()
    fmt.Println("Sync Configuration")
    fmt.Println("------------------")

    var windowDays string
    windowPrompt := &survey.Input{
        Message: "Incremental window for daily runs (days):",
        Default: strconv.Itoa(cfg.ETL.IncrementalWindowDays),
    }
    if err := survey.AskOne(windowPrompt, &windowDays); err != nil {
        fmt.Printf("Error: %v\n", err)
        os.Exit(1)
    }
    if days, err := strconv.Atoi(windowDays); err == nil && days > 0 {
        cfg.ETL.IncrementalWindowDays = days
    }

    var rangeChoice string
    rangePrompt := &survey.Select{
        Message: "Calendar range for the time dimension:",
        Options: []string{
            "2015-01-01 to 2030-12-31 (default)",
            "2020-01-01 to 2035-12-31",
        },
        Default: "2015-01-01 to 2030-12-31 (default)",
    }
    if err := survey.AskOne(rangePrompt, &rangeChoice); err == nil {
        if rangeChoice == "2020-01-01 to 2035-12-31" {
            cfg.TimeDim.StartDate = "2020-01-01"
            cfg.TimeDim.EndDate = "2035-12-31"
        }
    }

    // Save configuration
    err = config.Save(cfg)
    if err != nil {
        fmt.Printf("Error saving configuration: %v\n", err)
        os.Exit(1)
    }

    fmt.Println()
    fmt.Printf("Configuration saved to %s\n", config.GetConfigFile())
    fmt.Println("Run 'procsync bootstrap' next to create the analytics schema.")
}
