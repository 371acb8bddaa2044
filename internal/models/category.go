package models

// CategoryConfig defines an expense category and the keywords that select it.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig is the top-level structure of categories.yaml.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}
