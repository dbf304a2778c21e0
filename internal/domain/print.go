/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"net"
	"strings"
)

// PrintMode selects the print path on the dispatch service.
type PrintMode string

const (
	PrintPDF     PrintMode = "pdf"
	PrintThermal PrintMode = "thermal"
	PrintLaser   PrintMode = "laser"
)

// DefaultPrinterPort is the raw (JetDirect) port used for thermal printers.
const DefaultPrinterPort = 9100

// PrintSettings accompany a template sent to the print dispatcher.
type PrintSettings struct {
	Copies      int       `json:"copies"`
	Mode        PrintMode `json:"mode"`
	PrinterIP   string    `json:"printer_ip,omitempty"`
	PrinterPort int       `json:"printer_port,omitempty"`
	// Reference identifies the record being labelled (item, batch, serial).
	Reference string `json:"reference,omitempty"`
}

// Normalize fills defaults: one copy, pdf mode, raw port for thermal printing.
func (p PrintSettings) Normalize() PrintSettings {
	if p.Copies <= 0 {
		p.Copies = 1
	}
	if p.Mode == "" {
		p.Mode = PrintPDF
	}
	if p.Mode == PrintThermal && p.PrinterPort == 0 {
		p.PrinterPort = DefaultPrinterPort
	}
	p.PrinterIP = strings.TrimSpace(p.PrinterIP)
	return p
}

// Validate checks the settings; thermal printing needs a printer address.
func (p PrintSettings) Validate() error {
	switch p.Mode {
	case PrintPDF, PrintThermal, PrintLaser:
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unsupported print mode %q", p.Mode)}
	}
	if p.Copies < 1 {
		return &ValidationError{Field: "copies", Reason: "must be at least 1"}
	}
	if p.Mode == PrintThermal {
		if p.PrinterIP == "" {
			return &ValidationError{Field: "printer_ip", Reason: "printer IP is required for thermal printing"}
		}
		if net.ParseIP(p.PrinterIP) == nil {
			return &ValidationError{Field: "printer_ip", Reason: fmt.Sprintf("invalid address %q", p.PrinterIP)}
		}
	}
	return nil
}

// SaveResult is the template store's answer to a save.
type SaveResult struct {
	Success bool   `json:"success"`
	Name    string `json:"name,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PrintResult is the print dispatcher's answer.
type PrintResult struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Record is one live-data record keyed by field key.
type Record map[string]string

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
