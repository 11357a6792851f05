package bot

import "fmt"

// ExportError means the artifact could not be written.
type ExportError struct {
	Name string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Name, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// DeliveryError means the artifact could not be sent back to the chat.
type DeliveryError struct {
	Name    string
	Missing bool // the file was gone at send time
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Missing {
		return fmt.Sprintf("deliver %s: file not found", e.Name)
	}
	return fmt.Sprintf("deliver %s: %v", e.Name, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
