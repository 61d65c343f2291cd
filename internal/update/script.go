package update

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// batchTemplate is the Windows replacement script. It runs after both this
// process and the application have exited, which is why the swap cannot be
// performed in-process: a running executable cannot overwrite itself.
const batchTemplate = `@echo off
echo Update script starting...
ping 127.0.0.1 -n 3 > nul

:CHECK_PROCESS
tasklist /FI "IMAGENAME eq {{.ProcessName}}" 2>NUL | find /I "{{.ProcessName}}" >NUL
if "%ERRORLEVEL%" == "0" (
    echo Application still running, waiting...
    ping 127.0.0.1 -n 3 > nul
    goto CHECK_PROCESS
)

if exist "{{.BackupPath}}" del "{{.BackupPath}}"

:RETRY_BACKUP
if exist "{{.ExecutablePath}}" (
    move "{{.ExecutablePath}}" "{{.BackupPath}}"
    if "%ERRORLEVEL%" neq "0" (
        echo Backup failed, retrying...
        ping 127.0.0.1 -n 3 > nul
        goto RETRY_BACKUP
    )
)

if not exist "{{.StagedPath}}" (
    echo ERROR: staged executable not found
    if exist "{{.BackupPath}}" move "{{.BackupPath}}" "{{.ExecutablePath}}"
    goto END
)

:RETRY_INSTALL
move "{{.StagedPath}}" "{{.ExecutablePath}}"
if "%ERRORLEVEL%" neq "0" (
    echo Install failed, retrying...
    ping 127.0.0.1 -n 3 > nul
    goto RETRY_INSTALL
)

if not exist "{{.ExecutablePath}}" (
    echo ERROR: installation verification failed
    if exist "{{.BackupPath}}" move "{{.BackupPath}}" "{{.ExecutablePath}}"
    goto END
)

start "" "{{.ExecutablePath}}"
ping 127.0.0.1 -n 3 > nul
if exist "{{.BackupPath}}" del "{{.BackupPath}}"
echo Update completed.
:END
del "%~f0"
`

// shellTemplate is the POSIX equivalent. Same contract: poll for exit,
// backup by rename, install by rename, verify, restart, restore on failure.
const shellTemplate = `#!/bin/sh
sleep 2
while pgrep -x "{{.ProcessName}}" >/dev/null 2>&1; do
    sleep 2
done

rm -f "{{.BackupPath}}"

if [ -e "{{.ExecutablePath}}" ]; then
    mv "{{.ExecutablePath}}" "{{.BackupPath}}" || exit 1
fi

if [ ! -e "{{.StagedPath}}" ]; then
    [ -e "{{.BackupPath}}" ] && mv "{{.BackupPath}}" "{{.ExecutablePath}}"
    exit 1
fi

if ! mv "{{.StagedPath}}" "{{.ExecutablePath}}"; then
    [ -e "{{.BackupPath}}" ] && mv "{{.BackupPath}}" "{{.ExecutablePath}}"
    exit 1
fi

if [ ! -e "{{.ExecutablePath}}" ]; then
    [ -e "{{.BackupPath}}" ] && mv "{{.BackupPath}}" "{{.ExecutablePath}}"
    exit 1
fi

chmod +x "{{.ExecutablePath}}"
"{{.ExecutablePath}}" &
sleep 1
rm -f "{{.BackupPath}}"
rm -- "$0"
`

// RenderScript renders the replacement script text for plan on goos.
func RenderScript(plan InstallPlan, goos string) (string, error) {
	src := shellTemplate
	if goos == "windows" {
		src = batchTemplate
	}

	tmpl, err := template.New("replace").Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse script template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, plan); err != nil {
		return "", fmt.Errorf("render script: %w", err)
	}
	return b.String(), nil
}

// WriteScript renders and writes the replacement script to plan.ScriptPath.
func WriteScript(plan InstallPlan, goos string) error {
	text, err := RenderScript(plan, goos)
	if err != nil {
		return &ScriptError{Path: plan.ScriptPath, Err: err}
	}
	if err := os.WriteFile(plan.ScriptPath, []byte(text), 0755); err != nil {
		return &ScriptError{Path: plan.ScriptPath, Err: err}
	}
	return nil
}
