package core

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"text/template"
)

// expand renders value as a template with "env" and "exec" functions, so a
// setting can be written as {{ env "DATABRICKS_HOST" }} or
// {{ exec "cat /run/secrets/warehouse" }}.
func expand(value string) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}

	tmpl, err := template.New("expand_variables").
		Funcs(template.FuncMap{
			"env": os.Getenv,
			"exec": func(line string) (string, error) {
				if strings.Contains(line, " | ") {
					out, err := exec.Command("sh", "-c", line).Output()
					return strings.TrimSpace(string(out)), err
				}

				l := strings.Fields(line)
				if len(l) < 1 {
					return "", errors.New("no command provided")
				}

				out, err := exec.Command(l[0], l[1:]...).Output()
				return strings.TrimSpace(string(out)), err
			},
		}).
		Option("missingkey=error").
		Parse(value)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, nil); err != nil {
		return "", err
	}

	return out.String(), nil
}
