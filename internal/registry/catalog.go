package registry

// freeform is the schema for tools whose parameters the dispatcher validates.
func freeform() map[string]any {
	return map[string]any{"type": "object", "additionalProperties": true}
}

func obj(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func num(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func tool(name, category string, level int, desc string) ToolMeta {
	return ToolMeta{Name: name, Category: category, RequiredLevel: level, Description: desc, Parameters: freeform()}
}

// catalog is the full static tool catalog. Levels follow the convention:
// 1 read-only, 2 routine records/comms, 3 money-adjacent or tenant-visible,
// 4 high-impact (terminations, large spend, legal notices).
var catalog = []ToolMeta{
	// query
	tool("get_property_details", CategoryQuery, 1, "Fetch full details for a property."),
	tool("get_tenancy_details", CategoryQuery, 1, "Fetch a tenancy with tenant, rent and lease dates."),
	tool("get_tenant_profile", CategoryQuery, 1, "Fetch a tenant's contact and history profile."),
	tool("get_arrears_summary", CategoryQuery, 1, "Summarise arrears across a portfolio or property."),
	tool("get_payment_history", CategoryQuery, 1, "List payments for a tenancy over a period."),
	tool("get_maintenance_history", CategoryQuery, 1, "List maintenance requests for a property."),
	tool("get_inspection_history", CategoryQuery, 1, "List inspections for a property."),
	tool("get_compliance_status", CategoryQuery, 1, "List compliance items and their due dates."),
	tool("get_lease_terms", CategoryQuery, 1, "Fetch the lease terms for a tenancy."),
	tool("get_portfolio_summary", CategoryQuery, 1, "Aggregate portfolio KPIs for an owner."),
	tool("get_market_rent_estimate", CategoryQuery, 1, "Estimate market rent for a property."),
	tool("get_vacancy_listings", CategoryQuery, 1, "List current vacancies and their ages."),
	tool("get_contractor_details", CategoryQuery, 1, "Fetch a contractor's trades, rates and ratings."),
	tool("search_contractors", CategoryQuery, 1, "Search contractors by trade and availability."),
	tool("get_document", CategoryQuery, 1, "Fetch a stored document by id."),
	tool("search_documents", CategoryQuery, 1, "Search stored documents by keyword."),
	tool("get_upcoming_events", CategoryQuery, 1, "List upcoming dated obligations for a property."),
	tool("get_rent_review_schedule", CategoryQuery, 1, "List tenancies due a rent review."),
	tool("get_owner_statement", CategoryQuery, 1, "Fetch a monthly owner statement."),
	tool("lookup_regulation", CategoryQuery, 1, "Look up a landlord/tenant regulation by topic."),
	tool("get_utility_accounts", CategoryQuery, 1, "List utility accounts linked to a property."),
	tool("get_insurance_policies", CategoryQuery, 1, "List insurance policies for a property."),
	tool("get_expense_summary", CategoryQuery, 1, "Summarise expenses for a property over a period."),
	tool("get_tax_summary", CategoryQuery, 1, "Summarise deductible income and expenses for a tax year."),

	// communication
	{Name: "send_rent_reminder", Category: CategoryCommunication, RequiredLevel: 2,
		Description: "Send a polite rent-due reminder to a tenant.",
		Parameters: obj([]string{"tenancy_id"}, map[string]any{
			"tenancy_id": str("Tenancy to remind"),
			"tone":       str("friendly|firm"),
		})},
	tool("send_tenant_message", CategoryCommunication, 2, "Send a free-form message to a tenant."),
	tool("send_owner_update", CategoryCommunication, 2, "Send a status update to the property owner."),
	tool("send_contractor_message", CategoryCommunication, 2, "Message a contractor about a job."),
	tool("send_payment_receipt", CategoryCommunication, 2, "Send a payment receipt to a tenant."),
	tool("send_inspection_notice", CategoryCommunication, 3, "Send a formal inspection entry notice."),
	tool("send_arrears_notice", CategoryCommunication, 3, "Send a formal arrears notice to a tenant."),
	tool("send_lease_expiry_notice", CategoryCommunication, 3, "Notify a tenant their lease is expiring."),
	tool("send_emergency_notification", CategoryCommunication, 2, "Urgently notify affected parties of an emergency."),
	tool("schedule_phone_call", CategoryCommunication, 2, "Schedule a call-back with a tenant or owner."),
	tool("send_welcome_pack", CategoryCommunication, 2, "Send a move-in welcome pack to a new tenant."),
	tool("send_renewal_offer", CategoryCommunication, 3, "Send a lease renewal offer to a tenant."),
	tool("send_vacate_instructions", CategoryCommunication, 3, "Send end-of-lease vacate instructions."),
	tool("broadcast_building_notice", CategoryCommunication, 3, "Notify all tenants in a building."),
	tool("send_maintenance_update", CategoryCommunication, 2, "Update a tenant on an in-flight repair."),

	// maintenance
	{Name: "create_work_order", Category: CategoryMaintenance, RequiredLevel: 3,
		Description: "Create a work order and assign a contractor.",
		Parameters: obj([]string{"property_id", "summary"}, map[string]any{
			"property_id":   str("Property the work applies to"),
			"summary":       str("What needs doing"),
			"cost":          num("Approved cost ceiling"),
			"contractor_id": str("Preferred contractor"),
		})},
	tool("triage_maintenance_request", CategoryMaintenance, 2, "Classify urgency and trade for a request."),
	tool("request_quote", CategoryMaintenance, 2, "Request a quote from a contractor."),
	tool("compare_quotes", CategoryMaintenance, 1, "Compare received quotes for a job."),
	tool("approve_quote", CategoryMaintenance, 3, "Approve a contractor quote."),
	tool("schedule_repair", CategoryMaintenance, 3, "Book a contractor time slot with tenant access."),
	tool("dispatch_emergency_repair", CategoryMaintenance, 3, "Dispatch an emergency contractor immediately."),
	tool("close_work_order", CategoryMaintenance, 2, "Mark a work order complete with outcome notes."),
	tool("escalate_maintenance", CategoryMaintenance, 3, "Escalate a stalled job to a new contractor."),
	tool("order_parts", CategoryMaintenance, 3, "Order parts for an open work order."),
	tool("log_maintenance_note", CategoryMaintenance, 2, "Append a note to a maintenance request."),
	tool("request_access_permission", CategoryMaintenance, 2, "Ask a tenant for access permission."),
	tool("verify_completion_photos", CategoryMaintenance, 2, "Request and review completion photos."),

	// financial
	{Name: "record_payment", Category: CategoryFinancial, RequiredLevel: 2,
		Description: "Record a received rent payment against a tenancy.",
		Parameters: obj([]string{"tenancy_id", "amount"}, map[string]any{
			"tenancy_id": str("Tenancy paid against"),
			"amount":     num("Payment amount"),
		})},
	tool("issue_invoice", CategoryFinancial, 3, "Issue an invoice to a tenant or owner."),
	tool("apply_late_fee", CategoryFinancial, 3, "Apply a late-payment fee to a tenancy."),
	tool("waive_late_fee", CategoryFinancial, 3, "Waive a previously applied late fee."),
	tool("process_refund", CategoryFinancial, 4, "Refund a payment to a tenant."),
	tool("setup_payment_plan", CategoryFinancial, 3, "Agree an arrears repayment plan."),
	tool("adjust_rent", CategoryFinancial, 4, "Change the rent amount on a tenancy."),
	tool("release_bond", CategoryFinancial, 4, "Release a tenancy bond at end of lease."),
	tool("claim_bond_deduction", CategoryFinancial, 4, "Claim a deduction from a bond."),
	tool("pay_contractor_invoice", CategoryFinancial, 3, "Pay an approved contractor invoice."),
	tool("reconcile_owner_account", CategoryFinancial, 2, "Reconcile an owner ledger for a period."),
	tool("generate_owner_statement", CategoryFinancial, 2, "Generate the monthly owner statement."),
	tool("forecast_cashflow", CategoryFinancial, 1, "Forecast portfolio cashflow."),
	tool("flag_suspicious_payment", CategoryFinancial, 2, "Flag a payment for manual review."),
	tool("record_expense", CategoryFinancial, 2, "Record a property expense against the owner ledger."),

	// leasing
	tool("analyze_renewal_options", CategoryLeasing, 1, "Analyse renewal vs relist for an expiring lease."),
	tool("draft_lease_renewal", CategoryLeasing, 3, "Draft a lease renewal agreement."),
	tool("draft_new_lease", CategoryLeasing, 3, "Draft a new lease for an applicant."),
	tool("screen_applicant", CategoryLeasing, 2, "Run reference and affordability checks."),
	tool("rank_applicants", CategoryLeasing, 1, "Rank applicants for a vacancy."),
	tool("approve_application", CategoryLeasing, 4, "Approve a rental application."),
	tool("decline_application", CategoryLeasing, 3, "Decline a rental application with reasons."),
	tool("schedule_viewing", CategoryLeasing, 2, "Schedule a property viewing."),
	tool("issue_termination_notice", CategoryLeasing, 4, "Issue a formal lease termination notice."),
	tool("process_vacate_notice", CategoryLeasing, 3, "Process a tenant's notice to vacate."),
	tool("extend_lease", CategoryLeasing, 3, "Extend a lease on existing terms."),
	tool("negotiate_renewal_terms", CategoryLeasing, 3, "Counter-offer on renewal terms."),
	tool("prepare_entry_condition_report", CategoryLeasing, 2, "Prepare a move-in condition report."),
	tool("prepare_exit_condition_report", CategoryLeasing, 2, "Prepare a move-out condition report."),

	// compliance
	tool("check_compliance_requirements", CategoryCompliance, 1, "List obligations applying to a property."),
	tool("lookup_compliance_rules", CategoryCompliance, 1, "Look up jurisdictional compliance rules."),
	tool("schedule_smoke_alarm_check", CategoryCompliance, 2, "Book the annual smoke alarm service."),
	tool("schedule_gas_safety_check", CategoryCompliance, 2, "Book the gas safety inspection."),
	tool("schedule_electrical_check", CategoryCompliance, 2, "Book the electrical safety inspection."),
	tool("schedule_pool_safety_check", CategoryCompliance, 2, "Book the pool barrier inspection."),
	tool("record_compliance_certificate", CategoryCompliance, 2, "File a received compliance certificate."),
	tool("flag_compliance_breach", CategoryCompliance, 2, "Flag a property as non-compliant."),
	tool("generate_compliance_report", CategoryCompliance, 1, "Generate a portfolio compliance report."),
	tool("notify_compliance_overdue", CategoryCompliance, 2, "Warn the owner an obligation is overdue."),

	// inspection
	tool("schedule_routine_inspection", CategoryInspection, 2, "Schedule a routine inspection."),
	tool("reschedule_inspection", CategoryInspection, 2, "Move an inspection to a new slot."),
	tool("generate_inspection_checklist", CategoryInspection, 1, "Generate a property-specific checklist."),
	tool("finalize_inspection_report", CategoryInspection, 2, "Finalise and distribute an inspection report."),
	tool("flag_inspection_issue", CategoryInspection, 2, "Raise maintenance from an inspection finding."),
	tool("compare_condition_reports", CategoryInspection, 1, "Diff entry and exit condition reports."),
	tool("request_tenant_availability", CategoryInspection, 2, "Ask a tenant for inspection availability."),

	// marketing
	tool("draft_listing", CategoryMarketing, 2, "Draft a rental listing for a vacancy."),
	tool("publish_listing", CategoryMarketing, 3, "Publish a listing to the portals."),
	tool("unpublish_listing", CategoryMarketing, 2, "Take a listing off the portals."),
	tool("refresh_listing_photos", CategoryMarketing, 2, "Order new photography for a listing."),
	tool("adjust_advertised_rent", CategoryMarketing, 3, "Change the advertised rent on a listing."),
	tool("analyze_listing_performance", CategoryMarketing, 1, "Report views and enquiry conversion."),
	tool("respond_to_enquiry", CategoryMarketing, 2, "Reply to a prospective tenant enquiry."),

	// documents
	tool("generate_document", CategoryDocuments, 2, "Generate a document from a template."),
	tool("file_document", CategoryDocuments, 2, "File a document against a property or tenancy."),
	tool("extract_document_data", CategoryDocuments, 1, "Extract structured fields from a document."),
	tool("request_signature", CategoryDocuments, 3, "Send a document for electronic signature."),
	tool("archive_document", CategoryDocuments, 2, "Archive a superseded document."),
	tool("share_document", CategoryDocuments, 2, "Share a document with a tenant or owner."),

	// memory
	tool("remember_preference", CategoryMemory, 1, "Store a durable owner or tenant preference."),
	tool("recall_context", CategoryMemory, 1, "Recall stored context about a party or property."),
	tool("record_interaction_note", CategoryMemory, 1, "Append a note to the interaction log."),
	tool("update_contact_details", CategoryMemory, 2, "Update stored contact details."),
	tool("summarize_relationship", CategoryMemory, 1, "Summarise the history with a tenant or owner."),

	// workflow
	tool("start_lease_renewal_workflow", CategoryWorkflow, 2, "Start the multi-step lease renewal plan."),
	tool("start_arrears_escalation_workflow", CategoryWorkflow, 2, "Start the staged arrears escalation plan."),
	tool("start_vacancy_workflow", CategoryWorkflow, 2, "Start the relist-and-fill vacancy plan."),
	tool("start_onboarding_workflow", CategoryWorkflow, 2, "Start new-tenancy onboarding."),
	tool("start_end_of_lease_workflow", CategoryWorkflow, 2, "Start the end-of-lease plan."),
	tool("pause_workflow", CategoryWorkflow, 2, "Pause an active workflow."),
	tool("resume_workflow", CategoryWorkflow, 2, "Resume a paused workflow."),
	tool("cancel_workflow", CategoryWorkflow, 3, "Cancel an active workflow."),
	tool("get_workflow_status", CategoryWorkflow, 1, "Report an active workflow's progress."),

	// emergency
	tool("classify_emergency", CategoryEmergency, 1, "Classify whether a report is a true emergency."),
	tool("dispatch_emergency_services_info", CategoryEmergency, 2, "Send emergency services contact info to a tenant."),
	tool("arrange_emergency_accommodation", CategoryEmergency, 4, "Arrange temporary accommodation for a tenant."),
	tool("shut_off_utility", CategoryEmergency, 3, "Instruct shut-off of a leaking/faulty utility."),
	tool("notify_insurer", CategoryEmergency, 3, "Lodge an insurance notification for an incident."),
	tool("document_incident", CategoryEmergency, 2, "Record an incident report with evidence."),
}
