package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = `# zones-cli configuration.
# Every key can also be set through the environment with the ZONES_ prefix
# and underscores for dots, e.g. ZONES_STORE_DRIVER=postgres.
`

const sourcesExample = `
# Dataset source URLs are vintage-specific; copy the current links from
# insee.fr / data.gouv.fr before running 'zones-cli fetch':
#
# fetch:
#   sources:
#     housing: https://www.insee.fr/fr/statistiques/fichier/<id>/base-cc-logement-2021_csv.zip
#     income: https://www.insee.fr/fr/statistiques/fichier/<id>/niveau_de_vie_communes.xlsx
#     geography: https://www.data.gouv.fr/fr/datasets/r/<id>
#     shapefile: https://data.geopf.fr/telechargement/download/ADMIN-EXPRESS/<bundle>.zip
#
# The Notion token is better kept out of this file:
# export ZONES_NOTION_TOKEN=secret_...
`

var (
	configInitPath  string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml",
	Long:  "Writes the effective configuration (defaults merged with environment overrides) to a config file you can edit.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configInitPath); err == nil && !configInitForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", configInitPath)
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}

		content := configHeader + string(out) + sourcesExample
		if err := os.WriteFile(configInitPath, []byte(content), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", configInitPath)
		}

		fmt.Printf("Wrote %s\n", configInitPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "config.yaml", "where to write the config file")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
