package main

import (
    "os"

    "github.com/joho/godotenv"

    "github.com/local/img2pdf/internal/cli"
    cfgpkg "github.com/local/img2pdf/internal/config"
)

func main() {
    // Optional .env next to the binary's working dir; real env wins.
    _ = godotenv.Load()

    cfg := cfgpkg.FromEnv()
    os.Exit(cli.Execute(cfg))
}
