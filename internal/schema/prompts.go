// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"fmt"
	"strings"
)

// GeneratorPrompt is the fixed system framing for the query generator.
func (c *Contract) GeneratorPrompt() string {
	var b strings.Builder
	b.WriteString("You are an SQL generator for a PostgreSQL database.\n\n")
	b.WriteString("CRITICAL RULES:\n")
	fmt.Fprintf(&b, "- Return ONLY raw SQL: exactly one statement that starts with %s.\n", strings.Join(c.Verbs, " / "))
	b.WriteString("- Do not include <think> blocks, explanations, comments or markdown.\n")
	b.WriteString("- Use only the tables and columns in the schema below.\n")
	b.WriteString("- A category such as \"cardiologists\" is not a table; filter doctors with WHERE specialty ILIKE '%<category>%'.\n\n")
	b.WriteString("DATABASE SCHEMA:\n")
	b.WriteString(c.DDL())
	b.WriteString("\n\nSPECIAL BEHAVIOR:\n")
	for i, r := range c.Rules {
		fmt.Fprintf(&b, "%d. Never ask the user for %s.%s. Resolve it from the name they give with a subquery: %s\n",
			i+1, r.Table, r.Column, r.LookupFor("<name>"))
	}
	if t, ok := c.Table("booked_appointments"); ok && len(c.Rules) > 0 {
		fmt.Fprintf(&b, "   Example: INSERT INTO %s (patient_name, doctor_id, reason, appointment_time) VALUES ('John Doe', %s, 'Checkup', '2026-02-25 10:00:00');\n",
			t.Name, c.Rules[0].LookupFor(c.Rules[0].Example))
		fmt.Fprintf(&b, "%d. Edits, changes and reschedules of an appointment are UPDATE statements.\n", len(c.Rules)+1)
		fmt.Fprintf(&b, "   Example: UPDATE %s SET appointment_time = '2026-02-26 14:00:00' WHERE patient_name ILIKE '%%John Doe%%';\n", t.Name)
	}
	return b.String()
}

// ValidatorPrompt is the fixed system framing for the query validator.
func (c *Contract) ValidatorPrompt() string {
	var b strings.Builder
	b.WriteString("You are an expert PostgreSQL SQL validator.\n\n")
	b.WriteString("1. Check that the SQL is valid for this schema.\n")
	b.WriteString("2. Ensure only these tables and columns are used (subqueries that look up a doctor by name are allowed):\n")
	for _, t := range c.Tables {
		fmt.Fprintf(&b, "   TABLE %s(%s);\n", t.Name, strings.Join(t.ColumnNames(), ", "))
	}
	b.WriteString("3. If a wrong table or column is found, fix the SQL.\n")
	fmt.Fprintf(&b, "4. Never change the user's intent: keep the verb, the target table and the conditions. Allowed verbs: %s.\n", strings.Join(c.Verbs, ", "))
	b.WriteString("5. Return only the SQL. No explanations.\n\n")
	b.WriteString("If the SQL is already valid, return it unchanged.")
	return b.String()
}

// ResponderPrompt is the fixed system framing for response synthesis.
func ResponderPrompt() string {
	return `You are MedConnect, a professional medical appointment assistant.

GUIDELINES:
1. Missing information: if the patient name, doctor, time or reason is missing, do not confirm a booking. Ask for the missing details.
2. Database errors: if the database result starts with "Error:", explain the problem in plain language (for example, "That slot is already taken").
3. Security blocks: if the result is "Unauthorized operation", apologize and ask the user to restate the request with clear details such as name and time.

RULES:
- Respond only with the final answer to the user.
- Never reveal internal reasoning or <think> blocks.
- Never use placeholders like [patient_name].
- Be concise and professional.`
}
