package cmd

import (
    "fmt"
    "os"
    "github.com/spf13/cobra"
    "github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
    Use:   "procsync",
    Short: "Sync procurement data into the analytics warehouse",
    Long:  "ProcSync - An incremental ETL engine that moves operational procurement data into a star-schema analytics database with SCD Type 2 dimension history",
}

func Execute() {
    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}

func init() {
    cobra.OnInitialize(initConfig)
}

func initConfig() {
    viper.SetConfigName("config")
    viper.SetConfigType("yaml")
    viper.AddConfigPath(".")

    home, err := os.UserHomeDir()
    if err == nil {
        viper.AddConfigPath(home + "/.procsync")
    }

    if err := viper.ReadInConfig(); err != nil {
        // Config file not found is okay for now
    }
}
