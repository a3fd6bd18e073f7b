package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	serverName     = "gdlens"
	registryName   = "io.github.panbanda/gdlens"
	repositoryURL  = "https://github.com/panbanda/gdlens"
	imageName      = "ghcr.io/panbanda/gdlens"
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	configEnvVar   = "GDLENS_CONFIG"
)

// Manifest is the server.json entry published to the MCP registry.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	WebsiteURL  string      `json:"websiteUrl,omitempty"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one installable distribution of the server.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVariable `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// EnvVariable is an environment variable the server reads at startup.
type EnvVariable struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired"`
}

type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest returns server.json for version. Development builds
// ("", "dev") are published as 0.0.0.
func GenerateManifest(version string) ([]byte, error) {
	version = strings.TrimPrefix(version, "v")
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	m := Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Title:       serverName,
		Description: "Static analysis of Godot GDScript scripts and scenes: structure, call flows, signals and project dependencies",
		Version:     version,
		WebsiteURL:  repositoryURL,
		Repository:  &Repository{URL: repositoryURL, Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       imageName + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []EnvVariable{{
				Name:        configEnvVar,
				Description: "Path to a gdlens.toml, gdlens.yaml or gdlens.json file",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}
	return json.MarshalIndent(m, "", "  ")
}
