package sqlinline

const QInsertPurchase = `--sql 5eb09500-6dc1-475a-86c5-264c46a0d506
insert into purchases (id, user_id, modes, music_styles, story, status, created_at)
values ($1::text, $2::text, $3::text[], $4::text[], $5::text, 'pending', now())
returning created_at;
`

const QSelectPurchaseByID = `--sql 71f04ff0-4766-45db-9911-1d960fd45afc
select id, user_id, modes, music_styles, story, status, coalesce(assigned_song_id, ''), coalesce(transaction_id, ''), created_at, paid_at
from purchases
where id = $1::text
limit 1;
`

const QMarkPurchasePaid = `--sql 8df113c7-551f-4d5a-b8dc-cdbeaf679d1d
update purchases
set status = 'paid',
    assigned_song_id = nullif($2::text, ''),
    transaction_id = $3::text,
    paid_at = now()
where id = $1::text
  and status = 'pending'
returning id;
`

const QPurchaseExists = `--sql 80933df9-032d-4254-a5a5-864d384216af
select exists(select 1 from purchases where id = $1::text);
`
