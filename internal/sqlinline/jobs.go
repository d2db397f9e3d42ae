package sqlinline

const QInsertJob = `--sql 39689ada-997c-40a6-ab56-d22bc57ff746
insert into jobs (id, owner_key, type, payload, status, attempts, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::jsonb, 'pending', 0, now(), now())
returning created_at;
`

const QWorkerClaimJob = `--sql 88a7ab24-4c1d-4551-9ae8-b2bf30df1aa9
with next_job as (
    select id
    from jobs
    where status = 'pending'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update jobs
    set status = 'claimed',
        attempts = attempts + 1,
        claim_token = $1::text,
        lease_expires_at = $2::timestamptz,
        updated_at = now()
    where id in (select id from next_job)
    returning id, owner_key, type, payload, status, attempts, coalesce(claim_token, ''), lease_expires_at, result_ref, last_error, created_at, updated_at
)
select * from updated;
`

const QMarkJobSucceeded = `--sql cd860586-4f0a-4102-899c-4b17290d01a7
update jobs
set status = 'succeeded',
    result_ref = $3::text,
    lease_expires_at = null,
    updated_at = now()
where id = $1::text
  and status = 'claimed'
  and claim_token = $2::text;
`

const QMarkJobFailed = `--sql 98088c06-af99-446f-bebb-8c2ff6d325f0
update jobs
set status = 'failed',
    last_error = $3::text,
    lease_expires_at = null,
    updated_at = now()
where id = $1::text
  and status = 'claimed'
  and claim_token = $2::text;
`

const QFailExpiredJobs = `--sql b384c973-3c7d-437d-909a-18810380f000
update jobs
set status = 'failed',
    last_error = 'lease_expired',
    lease_expires_at = null,
    updated_at = now()
where status = 'claimed'
  and lease_expires_at < $1::timestamptz
  and attempts >= $2::int
returning id, owner_key, type, payload, status, attempts, coalesce(claim_token, ''), lease_expires_at, result_ref, last_error, created_at, updated_at;
`

const QRequeueExpiredJobs = `--sql 3867ca63-aaa9-4e1b-b165-7d4ad643ddff
update jobs
set status = 'pending',
    claim_token = null,
    lease_expires_at = null,
    updated_at = now()
where status = 'claimed'
  and lease_expires_at < $1::timestamptz
  and attempts < $2::int;
`

const QSelectJobByID = `--sql 51d2f6b2-40c5-4d24-865a-bad7c7e446ac
select id, owner_key, type, payload, status, attempts, coalesce(claim_token, ''), lease_expires_at, result_ref, last_error, created_at, updated_at
from jobs
where id = $1::text
limit 1;
`
