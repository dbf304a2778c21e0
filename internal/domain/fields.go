/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// FieldSpec describes one entry of the data dictionary that field elements bind to.
type FieldSpec struct {
	Key        string
	Label      string
	Sample     string
	FontSize   float64
	FontWeight string
	Monospace  bool
}

// Fields is the data dictionary offered in the designer palette.
var Fields = []FieldSpec{
	{Key: "item_code", Label: "Item Code", Sample: "ITEM001", FontSize: 14, FontWeight: "bold"},
	{Key: "item_name", Label: "Item Name", Sample: "Sample Item Name", FontSize: 12},
	{Key: "batch_no", Label: "Batch No", Sample: "BATCH001", FontSize: 11},
	{Key: "serial_no", Label: "Serial No", Sample: "SN001", FontSize: 11},
	{Key: "mfg_date", Label: "Manufacturing Date", Sample: "MFG: 01/01/2024", FontSize: 10},
	{Key: "exp_date", Label: "Expiry Date", Sample: "EXP: 01/01/2025", FontSize: 10},
	{Key: "quantity", Label: "Quantity", Sample: "Qty: 10", FontSize: 11},
	{Key: "company", Label: "Company", Sample: "Company Name", FontSize: 10},
	{Key: "barcode", Label: "Barcode", Sample: "||||| |||| |||||", FontSize: 16, Monospace: true},
}

// LookupField returns the dictionary entry for key.
func LookupField(key string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// SampleRecord is the record used by live preview when no real record is bound.
var SampleRecord = map[string]string{
	"item_code": "SAMPLE001",
	"item_name": "Sample Product Name",
	"batch_no":  "BATCH001",
	"serial_no": "SN001",
	"mfg_date":  "01/01/2024",
	"exp_date":  "01/01/2025",
	"quantity":  "10",
	"company":   "Sample Company",
}
