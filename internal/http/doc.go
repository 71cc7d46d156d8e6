// Package http exposes the outreach tracker over a JSON API.
//
// The router exposes the following endpoints:
//   - GET /health: liveness check returning {"status":"ok"}.
//   - GET /companies?search=&status=&page=&pageSize=: one page of companies as
//     {"items","page","pageSize","total","totalPages"}. status is one of all,
//     responded, not-responded or attempts-left.
//   - POST /companies, GET|PATCH|DELETE /companies/{id}: company management using
//     the `companyDTO` payload. GET returns the company with its people and email
//     attempts. PATCH accepts the client-settable fields only; null clears an
//     optional field.
//   - PUT /companies/{id}/decision: body {"decision":"Yes"|"No"|null}.
//   - GET /companies/{id}/people, GET /people?companyId=, POST /people,
//     GET|PATCH|DELETE /people/{id}: contact management using `personDTO`.
//   - GET /people/{id}/email-attempts, GET /email-attempts?personId=&companyId=,
//     POST /email-attempts, GET|DELETE /email-attempts/{id}: outreach emails using
//     `emailAttemptDTO`. Only a person's latest attempt may be deleted.
//   - POST /email-attempts/{id}/engagement: body {"kind":"open"|"click"|"resume_open"|"response"}.
//   - GET /analytics/summary: engagement totals and rates across all companies.
//
// Derived fields (totals, engagement flags, lastAttempt, ...) are rejected in
// request bodies with a validation error naming the field. Errors are returned
// as {"kind","message","errors"}: not_found maps to 404, validation and
// bad_request to 400, referential_integrity to 409 and anything else to 500.
package http
